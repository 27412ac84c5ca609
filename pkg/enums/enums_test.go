package enums

import "testing"

func TestParseOperationType(t *testing.T) {
	got, err := ParseOperationType("receipt")
	if err != nil || got != OperationTypeReceipt {
		t.Fatalf("expected receipt, got %q err=%v", got, err)
	}
	if _, err := ParseOperationType("Приход"); err == nil {
		t.Fatalf("expected error for unknown operation type")
	}
	if OperationType("refund").IsValid() {
		t.Fatalf("refund should not be a valid operation type")
	}
	if !OperationTypeCancellation.IsValid() {
		t.Fatalf("cancellation should be valid")
	}
}

func TestParseExportFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    ExportFormat
		wantErr bool
	}{
		{in: "", want: ExportFormatXLSX},
		{in: "CSV", want: ExportFormatCSV},
		{in: " xlsx ", want: ExportFormatXLSX},
		{in: "pdf", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseExportFormat(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("%q: expected %q got %q err=%v", tt.in, tt.want, got, err)
		}
	}
}

func TestExportFormatContentType(t *testing.T) {
	if ExportFormatCSV.ContentType() != "text/csv; charset=utf-8" {
		t.Fatalf("unexpected csv content type %q", ExportFormatCSV.ContentType())
	}
	if ExportFormatXLSX.ContentType() != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("unexpected xlsx content type %q", ExportFormatXLSX.ContentType())
	}
}
