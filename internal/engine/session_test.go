package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeCommitter records the batches it receives and can be told to fail.
type fakeCommitter struct {
	batches  []CommitBatch
	failNext error
}

func (f *fakeCommitter) CommitBatch(_ context.Context, batch CommitBatch) error {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.batches = append(f.batches, batch)
	return nil
}

const orderCSV = "Order ID,Customer Email,Total,Created At\n" +
	"1001,ada@example.com,129.90,2024-03-01\n" +
	"1002,grace@example.com,49.00,2024-03-02\n"

func TestService_BeginRunsPipeline(t *testing.T) {
	svc := NewService(&fakeCommitter{}, Options{})

	sess, err := svc.Begin(context.Background(), "orders.csv", []byte(orderCSV))
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	view := sess.View(10)
	if view.State != "parsed" {
		t.Errorf("State = %q, want parsed", view.State)
	}
	if view.Detection.EntityType != Orders {
		t.Errorf("detected %v, want Orders", view.Detection.EntityType)
	}
	if view.RowCount != 2 {
		t.Errorf("RowCount = %d, want 2", view.RowCount)
	}
	if len(view.Validation) != 0 {
		t.Errorf("Validation = %v, want empty", view.Validation)
	}
	if view.Mappings[0].MappedField != "id" {
		t.Errorf("first mapping = %+v, want id", view.Mappings[0])
	}

	if _, ok := svc.Get(sess.ID()); !ok {
		t.Error("session not registered with service")
	}
}

func TestService_BeginParseErrorNoSession(t *testing.T) {
	svc := NewService(&fakeCommitter{}, Options{})

	_, err := svc.Begin(context.Background(), "empty.csv", []byte("Order ID,Total\n"))
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Begin() error = %v, want *ParseError", err)
	}
}

func TestService_CommitSuccess(t *testing.T) {
	committer := &fakeCommitter{}
	svc := NewService(committer, Options{})

	sess, err := svc.Begin(context.Background(), "orders.csv", []byte(orderCSV))
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	result, err := svc.Commit(context.Background(), sess.ID())
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if result.Records != 2 {
		t.Errorf("Records = %d, want 2", result.Records)
	}
	if result.ImportID == "" {
		t.Error("ImportID is empty")
	}

	if len(committer.batches) != 1 {
		t.Fatalf("committer received %d batches, want 1", len(committer.batches))
	}
	batch := committer.batches[0]
	if batch.EntityType != Orders {
		t.Errorf("EntityType = %v, want Orders", batch.EntityType)
	}
	if batch.SourceFileName != "orders.csv" {
		t.Errorf("SourceFileName = %q", batch.SourceFileName)
	}

	rec := batch.Records[0]
	want := map[string]string{
		"id":          "1001",
		"email":       "ada@example.com",
		"total_price": "129.90",
		"created_at":  "2024-03-01",
	}
	for field, value := range want {
		if rec.Fields[field] != value {
			t.Errorf("Fields[%q] = %q, want %q", field, rec.Fields[field], value)
		}
	}
	if rec.RowID == "" {
		t.Error("RowID not assigned")
	}
	if rec.SourceFile != "orders.csv" {
		t.Errorf("SourceFile = %q", rec.SourceFile)
	}
	if rec.UploadedAt.IsZero() {
		t.Error("UploadedAt not set")
	}

	// Session is discarded after a successful commit.
	if _, ok := svc.Get(sess.ID()); ok {
		t.Error("session still live after commit")
	}
}

func TestService_CommitBlockedByValidation(t *testing.T) {
	committer := &fakeCommitter{}
	svc := NewService(committer, Options{})

	// Unclassifiable headers: validation is non-empty.
	sess, err := svc.Begin(context.Background(), "noise.csv", []byte("foo,bar\n1,2\n"))
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	_, err = svc.Commit(context.Background(), sess.ID())
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("Commit() error = %v, want validation failure", err)
	}

	// The storage collaborator was never contacted; the attempt stays
	// correctable.
	if len(committer.batches) != 0 {
		t.Error("committer was called despite failing validation")
	}
	if view := sess.View(1); view.State != "parsed" {
		t.Errorf("State = %q, want parsed", view.State)
	}
}

func TestService_CommitFailureIsRetryable(t *testing.T) {
	committer := &fakeCommitter{failNext: errors.New("connection refused")}
	svc := NewService(committer, Options{})

	sess, err := svc.Begin(context.Background(), "orders.csv", []byte(orderCSV))
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	_, err = svc.Commit(context.Background(), sess.ID())
	var commitErr *CommitError
	if !errors.As(err, &commitErr) {
		t.Fatalf("Commit() error = %v, want *CommitError", err)
	}

	// Back in Parsed: the same session can retry without a re-upload.
	if view := sess.View(1); view.State != "parsed" {
		t.Fatalf("State = %q, want parsed after storage failure", view.State)
	}

	if _, err := svc.Commit(context.Background(), sess.ID()); err != nil {
		t.Fatalf("retry Commit() error = %v", err)
	}
	if len(committer.batches) != 1 {
		t.Errorf("committer received %d batches after retry, want 1", len(committer.batches))
	}
}

func TestSession_SetMapping(t *testing.T) {
	svc := NewService(&fakeCommitter{}, Options{})
	sess, err := svc.Begin(context.Background(), "orders.csv", []byte(orderCSV))
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	// Redirect the email column to phone; suggested clears, confidence is
	// kept for audit.
	before := sess.View(1).Mappings[1]
	if err := sess.SetMapping(1, "phone"); err != nil {
		t.Fatalf("SetMapping() error = %v", err)
	}
	after := sess.View(1).Mappings[1]
	if after.MappedField != "phone" {
		t.Errorf("MappedField = %q, want phone", after.MappedField)
	}
	if after.Suggested {
		t.Error("Suggested survived a manual override")
	}
	if after.Confidence != before.Confidence {
		t.Errorf("Confidence changed %v -> %v on override", before.Confidence, after.Confidence)
	}

	// Unmapping every anchor column makes validation fail.
	for i, field := range []string{"unmapped", "unmapped", "unmapped", "unmapped"} {
		if err := sess.SetMapping(i, field); err != nil {
			t.Fatalf("SetMapping(%d) error = %v", i, err)
		}
	}
	if view := sess.View(1); len(view.Validation) == 0 {
		t.Error("Validation empty after unmapping every column")
	}

	// Re-mapping an anchor restores eligibility.
	if err := sess.SetMapping(0, "id"); err != nil {
		t.Fatalf("SetMapping() error = %v", err)
	}
	if view := sess.View(1); len(view.Validation) != 0 {
		t.Errorf("Validation = %v, want empty", view.Validation)
	}
}

func TestSession_SetMappingRejectsBadInput(t *testing.T) {
	svc := NewService(&fakeCommitter{}, Options{})
	sess, err := svc.Begin(context.Background(), "orders.csv", []byte(orderCSV))
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	if err := sess.SetMapping(99, "id"); err == nil {
		t.Error("out-of-range column accepted")
	}
	if err := sess.SetMapping(0, "warehouse"); err == nil {
		t.Error("field from a different schema accepted")
	}
}

func TestSession_OverrideEntityType(t *testing.T) {
	svc := NewService(&fakeCommitter{}, Options{})

	// "Order" in the first header tips detection to Orders even though the
	// rest of the file reads like a customer list.
	csv := "Order ID,Email,Name,Total\n7,ada@example.com,Ada,9.99\n"
	sess, err := svc.Begin(context.Background(), "mixed.csv", []byte(csv))
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if got := sess.View(1).Detection.EntityType; got != Orders {
		t.Fatalf("detected %v, want Orders", got)
	}

	if err := sess.OverrideEntityType(Customers); err != nil {
		t.Fatalf("OverrideEntityType() error = %v", err)
	}

	view := sess.View(1)
	if view.EntityType != "customers" {
		t.Errorf("EntityType = %q, want customers", view.EntityType)
	}
	if !view.Overridden {
		t.Error("Overridden = false, want true")
	}
	// Detection keeps the original verdict for display.
	if view.Detection.EntityType != Orders {
		t.Errorf("Detection.EntityType = %v, want Orders", view.Detection.EntityType)
	}
	// Columns were re-mapped against the customers schema; name and email are
	// anchors there, so the dataset stays commit-eligible.
	if view.Mappings[1].MappedField != "email" {
		t.Errorf("email column mapped to %q under customers schema", view.Mappings[1].MappedField)
	}
	if view.Mappings[2].MappedField != "name" {
		t.Errorf("name column mapped to %q under customers schema", view.Mappings[2].MappedField)
	}
	if len(view.Validation) != 0 {
		t.Errorf("Validation = %v, want empty", view.Validation)
	}
}

func TestService_CommitLastWriteWins(t *testing.T) {
	committer := &fakeCommitter{}
	svc := NewService(committer, Options{})

	// Both the first and second column map to id; the later column wins at
	// commit time.
	csv := "Order ID,id,Total,Customer Email\nfirst,second,9.99,a@b.example\n"
	sess, err := svc.Begin(context.Background(), "dup.csv", []byte(csv))
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	view := sess.View(1)
	if view.Mappings[0].MappedField != "id" || view.Mappings[1].MappedField != "id" {
		t.Fatalf("mappings = %v, want both columns on id", view.Mappings[:2])
	}

	if _, err := svc.Commit(context.Background(), sess.ID()); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	rec := committer.batches[0].Records[0]
	if rec.Fields["id"] != "second" {
		t.Errorf("Fields[id] = %q, want last-write-wins %q", rec.Fields["id"], "second")
	}
}

func TestService_Cancel(t *testing.T) {
	svc := NewService(&fakeCommitter{}, Options{})
	sess, err := svc.Begin(context.Background(), "orders.csv", []byte(orderCSV))
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	if !svc.Cancel(sess.ID()) {
		t.Fatal("Cancel() = false, want true")
	}
	if _, ok := svc.Get(sess.ID()); ok {
		t.Error("session still live after cancel")
	}
	if svc.Cancel(sess.ID()) {
		t.Error("second Cancel() = true, want false")
	}
}

func TestService_PurgeExpired(t *testing.T) {
	svc := NewService(&fakeCommitter{}, Options{SessionTTL: time.Minute})
	sess, err := svc.Begin(context.Background(), "orders.csv", []byte(orderCSV))
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	svc.purgeExpired(time.Now().Add(30 * time.Second))
	if _, ok := svc.Get(sess.ID()); !ok {
		t.Fatal("session purged before its TTL elapsed")
	}

	svc.purgeExpired(time.Now().Add(2 * time.Minute))
	if _, ok := svc.Get(sess.ID()); ok {
		t.Error("expired session survived the purge")
	}
}

func TestService_ViewPreviewBounded(t *testing.T) {
	svc := NewService(&fakeCommitter{}, Options{PreviewRows: 1})

	sess, err := svc.Begin(context.Background(), "orders.csv", []byte(orderCSV))
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	view := sess.View(svc.PreviewRows())
	if len(view.Preview) != 1 {
		t.Errorf("Preview has %d rows, want 1", len(view.Preview))
	}
	if view.RowCount != 2 {
		t.Errorf("RowCount = %d, want full count 2", view.RowCount)
	}
}
