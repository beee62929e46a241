package logger_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardanlabs/powledger/foundation/logger"
)

func Test_New(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.log")

	log, err := logger.New("TEST", path)
	if err != nil {
		t.Fatalf("Should be able to construct a logger: %s", err)
	}

	log.Infow("startup", "status", "testing")
	log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Should be able to read the log output: %s", err)
	}

	for _, exp := range []string{`"service":"TEST"`, `"status":"testing"`, `"msg":"startup"`} {
		if !strings.Contains(string(data), exp) {
			t.Fatalf("Should find %s in the log output: %s", exp, data)
		}
	}
}
