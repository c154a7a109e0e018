package engine

import (
	"errors"
	"math"
	"testing"
)

func TestComputeFees(t *testing.T) {
	cases := []struct {
		name                     string
		pool                     int64
		fs                       FeeSchedule
		creator, platform, prize int64
	}{
		{"zero fees", 300, FeeSchedule{}, 0, 0, 300},
		{"1%+1% on 300", 300, FeeSchedule{CreatorBps: 100, PlatformBps: 100}, 3, 3, 294},
		{"floors each fee", 199, FeeSchedule{CreatorBps: 100, PlatformBps: 100}, 1, 1, 197},
		{"full confiscation", 1000, FeeSchedule{CreatorBps: 10_000, PlatformBps: 0}, 1000, 0, 0},
		{"tiny pool rounds to zero", 99, FeeSchedule{CreatorBps: 100, PlatformBps: 100}, 0, 0, 99},
		{"empty pool", 0, FeeSchedule{CreatorBps: 500, PlatformBps: 500}, 0, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeFees(tc.pool, tc.fs)
			if err != nil {
				t.Fatalf("ComputeFees: %v", err)
			}
			if got.CreatorCents != tc.creator || got.PlatformCents != tc.platform || got.PrizeCents != tc.prize {
				t.Errorf("got %+v, want creator=%d platform=%d prize=%d", got, tc.creator, tc.platform, tc.prize)
			}
			if got.TotalCents != tc.creator+tc.platform {
				t.Errorf("total = %d, want %d", got.TotalCents, tc.creator+tc.platform)
			}
		})
	}
}

func TestComputeFeesOverflow(t *testing.T) {
	// pool × bps estouraria int64 antes da divisão
	if _, err := ComputeFees(math.MaxInt64/2, FeeSchedule{CreatorBps: 100, PlatformBps: 0}); !errors.Is(err, ErrOverflow) {
		t.Errorf("got %v, want ErrOverflow", err)
	}
}

func TestRewardPerWinner(t *testing.T) {
	reward, remainder, err := RewardPerWinner(294, 2)
	if err != nil || reward != 147 || remainder != 0 {
		t.Errorf("got (%d, %d, %v), want (147, 0, nil)", reward, remainder, err)
	}

	reward, remainder, err = RewardPerWinner(100, 3)
	if err != nil || reward != 33 || remainder != 1 {
		t.Errorf("got (%d, %d, %v), want (33, 1, nil)", reward, remainder, err)
	}

	if _, _, err := RewardPerWinner(100, 0); !errors.Is(err, ErrNoWinners) {
		t.Errorf("got %v, want ErrNoWinners", err)
	}
}

func TestFeeScheduleValidate(t *testing.T) {
	if err := (FeeSchedule{CreatorBps: 5000, PlatformBps: 5000}).Validate(); err != nil {
		t.Errorf("10000 bps total must be accepted: %v", err)
	}
	if err := (FeeSchedule{CreatorBps: 5000, PlatformBps: 5001}).Validate(); !errors.Is(err, ErrFeeScheduleTooHigh) {
		t.Errorf("got %v, want ErrFeeScheduleTooHigh", err)
	}
	// soma em uint32 não pode dar a volta
	if err := (FeeSchedule{CreatorBps: math.MaxUint16, PlatformBps: math.MaxUint16}).Validate(); !errors.Is(err, ErrFeeScheduleTooHigh) {
		t.Errorf("got %v, want ErrFeeScheduleTooHigh", err)
	}
}

func TestCheckedMath(t *testing.T) {
	if _, err := checkedAdd(math.MaxInt64, 1); !errors.Is(err, ErrOverflow) {
		t.Errorf("checkedAdd overflow: got %v", err)
	}
	if v, err := checkedAdd(math.MaxInt64-1, 1); err != nil || v != math.MaxInt64 {
		t.Errorf("checkedAdd at limit: (%d, %v)", v, err)
	}
	if _, err := checkedSub(1, 2); !errors.Is(err, ErrOverflow) {
		t.Errorf("checkedSub underflow: got %v", err)
	}
	if v, err := checkedMulBps(10_000, 123); err != nil || v != 123 {
		t.Errorf("checkedMulBps: (%d, %v), want 123", v, err)
	}
}
