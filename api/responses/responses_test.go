package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/construpro/construpro-backend/pkg/errors"
	"github.com/construpro/construpro-backend/pkg/types"
)

func decodeError(t *testing.T, body []byte) types.ErrorEnvelope {
	t.Helper()
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope
}

func TestWriteErrorCarriesRemediationFlags(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeTimeout, "viacep timed out"))

	if rec.Code != 504 {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	envelope := decodeError(t, rec.Body.Bytes())
	if !envelope.Error.CanRetry || !envelope.Error.SuggestManual {
		t.Fatalf("timeout must be retryable with manual fallback: %+v", envelope.Error)
	}
}

func TestWriteErrorValidationHasNoRemediation(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeValidation, "CEP must have 8 digits"))

	if rec.Code != 400 {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	envelope := decodeError(t, rec.Body.Bytes())
	if envelope.Error.CanRetry || envelope.Error.SuggestManual {
		t.Fatalf("validation errors are terminal: %+v", envelope.Error)
	}
	if envelope.Error.Message != "CEP must have 8 digits" {
		t.Fatalf("validation message must pass through: %q", envelope.Error.Message)
	}
}

func TestWriteErrorHidesInternalMessages(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, errors.New("pq: connection refused"))

	if rec.Code != 500 {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	envelope := decodeError(t, rec.Body.Bytes())
	if envelope.Error.Message != "internal server error" {
		t.Fatalf("internal detail leaked: %q", envelope.Error.Message)
	}
}

func TestWriteErrorIncludesDetailsWhenAllowed(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
		WithDetails(map[string]string{"cep": "must have 8 digits"})
	WriteError(context.Background(), nil, rec, err)

	envelope := decodeError(t, rec.Body.Bytes())
	if envelope.Error.Details == nil {
		t.Fatal("details must be included for validation errors")
	}
}
