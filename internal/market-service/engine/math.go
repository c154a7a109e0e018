package engine

import "math"

// Aritmética com verificação de estouro. Valores monetários e contadores são
// int64 não-negativos; qualquer violação aborta a operação com ErrOverflow.

func checkedAdd(a, b int64) (int64, error) {
	if b > math.MaxInt64-a {
		return 0, ErrOverflow
	}
	return a + b, nil
}

func checkedSub(a, b int64) (int64, error) {
	if b > a {
		return 0, ErrOverflow
	}
	return a - b, nil
}

// checkedMulBps calcula floor(amount × bps / 10000) sem estourar int64
func checkedMulBps(amount int64, bps uint16) (int64, error) {
	if bps == 0 || amount == 0 {
		return 0, nil
	}
	if amount > math.MaxInt64/int64(bps) {
		return 0, ErrOverflow
	}
	return amount * int64(bps) / 10_000, nil
}
