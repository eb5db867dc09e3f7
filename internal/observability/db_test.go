package observability

import (
	"fmt"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-devflow-backend/internal/config"
)

type probe struct {
	ID   uint
	Note string
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:otel_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&probe{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestInstrumentDB_RecordsStatementSpans(t *testing.T) {
	preserveOTelGlobals(t)
	rec := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))

	db := openDB(t)
	if err := InstrumentDB(db, config.OTELConfig{Enabled: true}); err != nil {
		t.Fatalf("InstrumentDB: %v", err)
	}
	if err := db.Create(&probe{Note: "secret@example.com"}).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	spans := rec.Ended()
	if len(spans) == 0 {
		t.Fatalf("no spans recorded")
	}
	for _, s := range spans {
		for _, kv := range s.Attributes() {
			if strings.Contains(kv.Value.Emit(), "secret@example.com") {
				t.Fatalf("query variable leaked into span %q: %s=%s", s.Name(), kv.Key, kv.Value.Emit())
			}
		}
	}
}

func TestInstrumentDB_DisabledIsNoop(t *testing.T) {
	preserveOTelGlobals(t)
	rec := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))

	db := openDB(t)
	if err := InstrumentDB(db, config.OTELConfig{}); err != nil {
		t.Fatalf("InstrumentDB: %v", err)
	}
	db.Create(&probe{Note: "x"})
	if n := len(rec.Ended()); n != 0 {
		t.Fatalf("spans recorded while disabled: %d", n)
	}
}
