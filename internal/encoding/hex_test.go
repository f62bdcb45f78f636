package encoding

import (
	"encoding"
	"errors"
	"testing"

	"github.com/vn18/simulate/internal/asm"
	"github.com/vn18/simulate/internal/word"
)

// Assert interface implemented.
var (
	_ encoding.TextMarshaler   = (*HexEncoding)(nil)
	_ encoding.TextUnmarshaler = (*HexEncoding)(nil)
)

type unmarshalTestCase struct {
	name, input string

	expectCodes int
	expectErr   error
}

func TestHexEncoderUnmarshalText(tt *testing.T) {
	tt.Parallel()

	tcs := []unmarshalTestCase{
		{
			name:      "empty",
			input:     "",
			expectErr: errEmpty,
		},
		{
			name:      "eof record",
			input:     ":00000001ff",
			expectErr: errEmpty,
		},
		{
			name:      "eof record with newlines",
			input:     "\n\n:00000001ff\n\n",
			expectErr: errEmpty,
		},
		{
			name:      "invalid bytes",
			input:     ":invalid",
			expectErr: ErrDecode,
		},
		{
			name:      "nonsense",
			input:     "u wot mate",
			expectErr: ErrDecode,
		},
		{
			name:        "data record",
			input:       ":0900640002000100000203ffff8d\n",
			expectCodes: 1,
		},
		{
			name:        "data records",
			input:       ":0900640002000100000203ffff8d\n:0900640002000100000203ffff8d\n",
			expectCodes: 2,
		},
		{
			name:      "length not a multiple of 3",
			input:     ":02020301face00",
			expectErr: ErrDecode,
		},
		{
			name:      "too short",
			input:     ":0",
			expectErr: ErrDecode,
		},
		{
			name:      "too short",
			input:     ":00",
			expectErr: ErrDecode,
		},
	}

	for _, tc := range tcs {
		tc := tc

		tt.Run(tc.name, func(tt *testing.T) {
			tt.Parallel()

			code, err := unmarshal(tc)

			tt.Logf("have: %q, got: %+v, err: %v", tc.input, code, err)

			switch {
			case tc.expectErr != nil && err != nil:
				if !errors.Is(err, tc.expectErr) {
					tt.Errorf("unexpected error: got: %s, want: %s", err, tc.expectErr)
				}
			case tc.expectErr != nil && err == nil:
				tt.Errorf("expected error: %s", tc.expectErr)
			case tc.expectErr == nil && err != nil:
				tt.Errorf("unexpected error: got: %v", err)
			case len(code) != tc.expectCodes:
				tt.Errorf("unexpected code count: want: %d, got: %d", tc.expectCodes, len(code))
			default:
				for i := range code {
					if code[i].Orig == 0 {
						tt.Error("origin not set: code", i)
					}
				}
			}
		})
	}
}

type marshalTestCase struct {
	name  string
	input []asm.ObjectCode

	expectOutput string
	expectErr    error
}

func TestHexEncoderMarshalText(tt *testing.T) {
	tt.Parallel()

	tcs := []marshalTestCase{
		{
			name:         "nil",
			input:        nil,
			expectOutput: ":00000001ff\n",
		},
		{
			name: "one record",
			input: []asm.ObjectCode{
				{
					Orig: word.Word(100),
					Code: []word.Word{0x20001, 0x00002, 0x3ffff},
				},
			},
			expectOutput: ":0900640002000100000203ffff8d\n:00000001ff\n",
		},
	}

	for _, tc := range tcs {
		tc := tc

		tt.Run(tc.name, func(tt *testing.T) {
			tt.Parallel()

			output, err := marshal(tc)

			tt.Logf("have: %+v, got: %q, err: %v", tc.input, output, err)

			switch {
			case tc.expectErr != nil && err != nil:
				if !errors.Is(err, tc.expectErr) {
					tt.Errorf("unexpected error: got: %s, want: %s", err, tc.expectErr)
				}
			case tc.expectErr != nil && err == nil:
				tt.Errorf("expected error: %s", tc.expectErr)
			case tc.expectErr == nil && err != nil:
				tt.Errorf("unexpected error: got: %v", err)
			default:
				if tc.expectOutput != output {
					tt.Errorf("got: %q, want: %q", output, tc.expectOutput)
				}
			}
		})
	}
}

func marshal(tc marshalTestCase) (string, error) {
	encoder := HexEncoding{Code: tc.input}

	out, err := encoder.MarshalText()

	return string(out), err
}

func unmarshal(tc unmarshalTestCase) ([]asm.ObjectCode, error) {
	decoder := HexEncoding{}
	err := decoder.UnmarshalText([]byte(tc.input))

	return decoder.Code, err
}
