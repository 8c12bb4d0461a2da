package schema

import (
	"errors"
	"testing"
	"time"

	"github.com/rzpsarthak13/rowcache/internal/core"
)

func TestConvertFromDBValue(t *testing.T) {
	tm := NewTypeMapper()
	tests := []struct {
		name   string
		value  interface{}
		dbType string
		want   interface{}
	}{
		{"int from bytes", []byte("42"), "INT", int64(42)},
		{"unsigned bigint", int64(7), "BIGINT UNSIGNED", int64(7)},
		{"varchar bytes", []byte("abc"), "VARCHAR(20)", "abc"},
		{"decimal kept as text", []byte("1.50"), "DECIMAL(10,2)", "1.50"},
		{"real", 2.5, "REAL", 2.5},
		{"tinyint(1) is bool", int64(1), "TINYINT(1)", true},
		{"null", nil, "INT", nil},
		{"unknown type bytes", []byte("x"), "GEOMETRY", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tm.ConvertFromDBValue(tt.value, tt.dbType)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestConversionFailuresWrapDataConversion(t *testing.T) {
	tm := NewTypeMapper()
	if _, err := tm.ToInt64("abc"); !errors.Is(err, core.ErrDataConversion) {
		t.Errorf("ToInt64: %v", err)
	}
	if _, err := tm.ToInt64(1.5); !errors.Is(err, core.ErrDataConversion) {
		t.Errorf("ToInt64 non-integral: %v", err)
	}
	if _, err := tm.ToTime(true); !errors.Is(err, core.ErrDataConversion) {
		t.Errorf("ToTime: %v", err)
	}
	if _, err := tm.ToBytes(3); !errors.Is(err, core.ErrDataConversion) {
		t.Errorf("ToBytes: %v", err)
	}
}

func TestToTimeLayouts(t *testing.T) {
	tm := NewTypeMapper()
	want := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	for _, in := range []string{"2024-03-01T10:30:00Z", "2024-03-01 10:30:00"} {
		got, err := tm.ToTime(in)
		if err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if !got.Equal(want) {
			t.Errorf("%s: got %v", in, got)
		}
	}
}

func TestValidateInsertRow(t *testing.T) {
	v := NewValidator([]core.Column{
		{Name: "id", Type: "INT"},
		{Name: "note", Type: "TEXT", Nullable: true},
	})
	if err := v.ValidateInsertRow([]interface{}{int64(1), nil}, []bool{true, false}); err != nil {
		t.Errorf("complete row rejected: %v", err)
	}
	err := v.ValidateInsertRow([]interface{}{nil, "x"}, []bool{false, true})
	if !errors.Is(err, core.ErrIncompleteInsertRow) {
		t.Errorf("got %v, want ErrIncompleteInsertRow", err)
	}
}

func TestTranslatorUpdateWithNullKey(t *testing.T) {
	tr := NewTranslator()
	stmt, err := tr.Update("users",
		[]Field{{Column: core.Column{Name: "name", Type: "VARCHAR"}, Value: "bob"}},
		[]Field{
			{Column: core.Column{Name: "id", Type: "INT"}, Value: int64(3)},
			{Column: core.Column{Name: "email"}, Value: nil},
		})
	if err != nil {
		t.Fatal(err)
	}
	want := "UPDATE users SET name = ? WHERE id = ? AND email IS NULL"
	if stmt.Query != want {
		t.Errorf("query = %q, want %q", stmt.Query, want)
	}
	if len(stmt.Args) != 2 || stmt.Args[0] != "bob" || stmt.Args[1] != int64(3) {
		t.Errorf("args = %#v", stmt.Args)
	}
}

func TestTranslatorFromOperation(t *testing.T) {
	tr := NewTranslator()
	stmt, err := tr.FromOperation(&core.WriteOperation{
		Table:     "users",
		Operation: core.OperationCreate,
		Data:      map[string]interface{}{"name": "a", "id": 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if stmt.Query != "INSERT INTO users (id, name) VALUES (?, ?)" {
		t.Errorf("query = %q", stmt.Query)
	}
	if _, err := tr.FromOperation(&core.WriteOperation{Table: "users", Operation: core.OperationDelete}); err == nil {
		t.Error("delete without key should fail")
	}
}
