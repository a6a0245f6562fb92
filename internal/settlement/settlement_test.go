package settlement

import "testing"

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name          string
		seed          uint64
		threshold     uint64
		wantExecuted  bool
		wantRandomVal uint64
	}{
		{
			name:          "seed below threshold executes",
			seed:          50,
			threshold:     100,
			wantExecuted:  true,
			wantRandomVal: 50,
		},
		{
			name:          "seed above threshold skips",
			seed:          200,
			threshold:     100,
			wantExecuted:  false,
			wantRandomVal: 200,
		},
		{
			name:          "boundary: value one below threshold executes",
			seed:          99,
			threshold:     100,
			wantExecuted:  true,
			wantRandomVal: 99,
		},
		{
			name:          "boundary: value equal to threshold skips",
			seed:          100,
			threshold:     100,
			wantExecuted:  false,
			wantRandomVal: 100,
		},
		{
			name:          "zero always executes for any positive threshold",
			seed:          0,
			threshold:     1,
			wantExecuted:  true,
			wantRandomVal: 0,
		},
		{
			name:          "max value executes only at full threshold",
			seed:          9999,
			threshold:     10000,
			wantExecuted:  true,
			wantRandomVal: 9999,
		},
		{
			name:          "zero threshold never executes",
			seed:          0,
			threshold:     0,
			wantExecuted:  false,
			wantRandomVal: 0,
		},
		{
			name:          "large seed reduces modulo 10000",
			seed:          123450042,
			threshold:     100,
			wantExecuted:  true,
			wantRandomVal: 42,
		},
		{
			name:          "63-bit seed reduces modulo 10000",
			seed:          (1 << 63) - 1, // 9223372036854775807
			threshold:     6000,
			wantExecuted:  true,
			wantRandomVal: 5807,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.seed, tt.threshold)
			if got.Executed != tt.wantExecuted {
				t.Errorf("Evaluate(%d, %d).Executed = %v, want %v", tt.seed, tt.threshold, got.Executed, tt.wantExecuted)
			}
			if got.RandomValue != tt.wantRandomVal {
				t.Errorf("Evaluate(%d, %d).RandomValue = %d, want %d", tt.seed, tt.threshold, got.RandomValue, tt.wantRandomVal)
			}
			if got.Threshold != tt.threshold {
				t.Errorf("Evaluate(%d, %d).Threshold = %d, want %d", tt.seed, tt.threshold, got.Threshold, tt.threshold)
			}
		})
	}
}

func TestEvaluateDeterminism(t *testing.T) {
	for seed := uint64(0); seed < 20000; seed += 137 {
		first := Evaluate(seed, DefaultThreshold)
		second := Evaluate(seed, DefaultThreshold)
		if first != second {
			t.Fatalf("Evaluate(%d, %d) not deterministic: %+v vs %+v", seed, uint64(DefaultThreshold), first, second)
		}
		if first.Executed != (seed%Modulus < DefaultThreshold) {
			t.Fatalf("Evaluate(%d, %d) violates threshold law", seed, uint64(DefaultThreshold))
		}
	}
}

func TestExpectedRate(t *testing.T) {
	if got := ExpectedRate(100); got != 0.01 {
		t.Errorf("ExpectedRate(100) = %v, want 0.01", got)
	}
	if got := ExpectedRate(10000); got != 1.0 {
		t.Errorf("ExpectedRate(10000) = %v, want 1.0", got)
	}
}
