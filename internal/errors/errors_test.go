package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCode(t *testing.T) {
	base := InvalidKind("element 2 is not an uncertain value")
	wrapped := Wrap(base, "weighted mean")

	assert.Equal(t, CodeInvalidKind, GetCode(wrapped))
	assert.True(t, IsCode(wrapped, CodeInvalidKind))
	assert.Equal(t, "weighted mean: element 2 is not an uncertain value", wrapped.Error())
}

func TestWrapForeignError(t *testing.T) {
	cause := stderrors.New("disk on fire")
	wrapped := Wrapf(cause, "reading %s", "data.xlsx")

	assert.Equal(t, CodeInternalError, GetCode(wrapped))
	assert.True(t, stderrors.Is(wrapped, cause))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))
	assert.Nil(t, Wrapf(nil, "ignored %d", 1))
	assert.Nil(t, WithCode(CodeIO, nil))
}

func TestGetCodeThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("outer: %w", InsufficientData("need two samples"))

	assert.True(t, IsAppError(err))
	assert.Equal(t, CodeInsufficientData, GetCode(err))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeFitFailed, stderrors.New("singular matrix"))
	assert.Equal(t, CodeFitFailed, GetCode(err))
	assert.Equal(t, "singular matrix", err.Error())

	inner := InvalidInput("bad guess")
	recoded := WithCode(CodeFitFailed, Wrap(inner, "fit"))
	assert.Equal(t, CodeFitFailed, GetCode(recoded))
	assert.Equal(t, "fit: bad guess", recoded.Error())

	cancelled := WithCode(CodeFitFailed, context.Canceled)
	assert.True(t, stderrors.Is(cancelled, context.Canceled))
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code string
	}{
		{"config", ConfigInvalid("x"), CodeConfigInvalid},
		{"input", InvalidInput("x"), CodeInvalidInput},
		{"kind", InvalidKind("x"), CodeInvalidKind},
		{"data", InsufficientData("x"), CodeInsufficientData},
		{"fit", FitFailed(stderrors.New("x")), CodeFitFailed},
		{"io", IOError("x", nil), CodeIO},
		{"external", ExternalServiceError("wolfram", nil), CodeExternalService},
		{"internal", InternalError("x"), CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}
