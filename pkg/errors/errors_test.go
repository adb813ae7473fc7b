package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataFor(t *testing.T) {
	meta := MetadataFor(CodeNotFound)
	if meta.HTTPStatus != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", meta.HTTPStatus)
	}

	fallback := MetadataFor(Code("SOMETHING_ELSE"))
	if fallback.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", fallback.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(CodeDependency, cause, "calling gateway")

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be discoverable via errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsUnwrapsNestedError(t *testing.T) {
	inner := New(CodeStateConflict, "insufficient stock")
	wrapped := fmt.Errorf("placing order: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeStateConflict {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestDumpWalksChain(t *testing.T) {
	err := Wrap(CodeInternal, errors.New("root"), "outer")
	dump := Dump(err)

	if dump.Code != CodeInternal {
		t.Fatalf("unexpected code %s", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected chain of 2, got %d", len(dump.Chain))
	}
}
