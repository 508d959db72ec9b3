package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/writeflow/backend/internal/models"
)

func TestLoad_CompilesEverySchema(t *testing.T) {
	v, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, name := range []string{TaskCreate, TaskUpdate, BidPlace, TransactionNew, SubmissionCreate, SubmissionReview} {
		if _, ok := v.schemas[name]; !ok {
			t.Errorf("schema %q not loaded", name)
		}
	}
}

func TestValidate(t *testing.T) {
	v := MustLoad()

	valid := map[string]string{
		BidPlace:         `{"amount":"450.00","proposal":"Two days"}`,
		TransactionNew:   `{"writer_id":"1b0e6a4e-7f0d-4a64-9d3c-0c1f6f7e9a11","amount":30,"type":"BONUS","description":"Referral"}`,
		SubmissionReview: `{"approved":false}`,
		TaskUpdate:       `{"status":"CANCELLED"}`,
	}
	for name, body := range valid {
		if err := v.Validate(name, []byte(body)); err != nil {
			t.Errorf("%s: unexpected error %v", name, err)
		}
	}

	invalid := []struct {
		name, body, want string
	}{
		{BidPlace, `{"amount":"450"}`, "proposal"},
		{BidPlace, `{"amount":"450","proposal":"ok","extra":1}`, "extra"},
		{BidPlace, `{"amount":100000000000,"proposal":"ok"}`, "/amount"},
		{TransactionNew, `{"writer_id":"1b0e6a4e-7f0d-4a64-9d3c-0c1f6f7e9a11","amount":1e11,"type":"BONUS","description":"x"}`, "/amount"},
		{TaskCreate, `{"title":"t","description":"d","subject":"s","pages":0,"budget":"10","deadline":"2030-01-01T00:00:00Z"}`, "/pages"},
		{TaskUpdate, `{}`, ""},
		{SubmissionReview, `{"approved":"yes"}`, "/approved"},
		{SubmissionCreate, `{"file_url":`, "invalid JSON"},
		{SubmissionCreate, `{"file_url":"x"} {}`, "trailing"},
	}
	for _, tc := range invalid {
		err := v.Validate(tc.name, []byte(tc.body))
		if !errors.Is(err, models.ErrValidation) {
			t.Errorf("%s %s: expected ErrValidation, got %v", tc.name, tc.body, err)
			continue
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s %s: error %q does not mention %q", tc.name, tc.body, err, tc.want)
		}
	}

	if err := v.Validate("nope", []byte(`{}`)); err == nil || errors.Is(err, models.ErrValidation) {
		t.Errorf("unknown schema should be a programming error, got %v", err)
	}
}
