package lineedit

import (
	"io"
	"testing"
)

type answerEditor struct {
	answer string
	err    error
}

func (a *answerEditor) Readline(string) (string, error) { return a.answer, a.err }
func (a *answerEditor) SetLine(string) {}
func (a *answerEditor) Clear() {}
func (a *answerEditor) AddHistory(string) {}
func (a *answerEditor) Close() error { return nil }

func TestConfirm(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		err     error
		want    bool
		wantErr bool
	}{
		{"Yes", "y", nil, true, false},
		{"YesWord", " YES ", nil, true, false},
		{"No", "n", nil, false, false},
		{"Empty", "", nil, false, false},
		{"Other", "sure", nil, false, false},
		{"Interrupt", "", ErrInterrupt, false, false},
		{"EOF", "", io.EOF, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Confirm(&answerEditor{answer: tt.answer, err: tt.err}, "? ")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Confirm() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Confirm() = %v, want %v", got, tt.want)
			}
		})
	}
}
