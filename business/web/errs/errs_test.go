package errs_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ardanlabs/powledger/business/web/errs"
)

func Test_Trusted(t *testing.T) {
	base := errors.New("block 9 does not exist")
	err := fmt.Errorf("query: %w", errs.NotFound(base))

	if !errs.IsTrusted(err) {
		t.Fatal("Should find the trusted error in the chain.")
	}

	te := errs.GetTrusted(err)
	if te.Status != http.StatusNotFound || te.Error() != base.Error() {
		t.Fatalf("Should keep the status and message, got %d %q", te.Status, te.Error())
	}

	if !errors.Is(err, base) {
		t.Fatal("Should unwrap to the original error.")
	}

	if errs.GetTrusted(base) != nil {
		t.Fatal("Should not treat a plain error as trusted.")
	}
}
