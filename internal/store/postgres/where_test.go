package postgres

import (
	"reflect"
	"testing"
)

func TestWhereBuilder_Build_Empty(t *testing.T) {
	wb := newWhereBuilder()
	whereClause, args := wb.Build()

	if whereClause != "" {
		t.Errorf("expected empty string for no conditions, got %q", whereClause)
	}
	if args != nil {
		t.Errorf("expected nil args for no conditions, got %v", args)
	}
	if wb.NextArgIndex() != 1 {
		t.Errorf("expected NextArgIndex 1, got %d", wb.NextArgIndex())
	}
}

func TestWhereBuilder_AddAndContains(t *testing.T) {
	wb := newWhereBuilder()
	wb.Add("csv_file_id", "f1")
	wb.AddContains("row_data", "")
	wb.AddContains("row_data", "Alice")

	whereClause, args := wb.Build()

	expected := " WHERE csv_file_id = $1 AND EXISTS (SELECT 1 FROM jsonb_each_text(row_data) kv WHERE strpos(kv.value, $2) > 0)"
	if whereClause != expected {
		t.Errorf("expected %q, got %q", expected, whereClause)
	}
	if !reflect.DeepEqual(args, []any{"f1", "Alice"}) {
		t.Errorf("unexpected args %v", args)
	}
	if wb.NextArgIndex() != 3 {
		t.Errorf("expected NextArgIndex 3, got %d", wb.NextArgIndex())
	}
}
