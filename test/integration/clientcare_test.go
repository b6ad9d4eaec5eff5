package integration

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/praxis/praxis/internal/domain/appointment"
	"github.com/praxis/praxis/internal/domain/client"
	"github.com/praxis/praxis/internal/domain/report"
	"github.com/praxis/praxis/internal/domain/tenant"
)

func newCareStack(t *testing.T) (*tenant.Service, *client.Service, *appointment.Service, *report.Service) {
	t.Helper()
	logger := testLogger()
	tenantSvc := tenant.NewService(tenant.NewRepoPG(globalDB.Pool))
	clientSvc := client.NewService(client.NewRepoPG(globalDB.Pool), logger)
	apptSvc := appointment.NewService(appointment.NewRepoPG(globalDB.Pool), logger)
	reportSvc := report.NewService(report.NewRepoPG(globalDB.Pool), logger)
	return tenantSvc, clientSvc, apptSvc, reportSvc
}

func createTestClient(t *testing.T, ctx context.Context, svc *client.Service, tenantID uuid.UUID) *client.Client {
	t.Helper()
	c := &client.Client{TenantID: tenantID, FirstName: "Ada", LastName: "Morris"}
	if err := svc.Create(ctx, c); err != nil {
		t.Fatalf("create client: %v", err)
	}
	return c
}

func TestClientLifecycle(t *testing.T) {
	ctx := context.Background()
	tenantSvc, clientSvc, _, _ := newCareStack(t)

	tn := createTestTenant(t, ctx, tenantSvc, 0)
	c := createTestClient(t, ctx, clientSvc, tn.ID)

	if c.Status != client.StatusDraft {
		t.Fatalf("new client status = %q, want draft", c.Status)
	}

	// Draft may not be discharged directly.
	if _, err := clientSvc.Discharge(ctx, c.ID); err == nil {
		t.Error("expected error discharging a draft client")
	}

	activated, err := clientSvc.Activate(ctx, c.ID)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if activated.Status != client.StatusActive || activated.ActivatedAt == nil {
		t.Errorf("activated client = %q/%v", activated.Status, activated.ActivatedAt)
	}

	discharged, err := clientSvc.Discharge(ctx, c.ID)
	if err != nil {
		t.Fatalf("discharge: %v", err)
	}
	if discharged.Status != client.StatusDischarged || discharged.DischargedAt == nil {
		t.Errorf("discharged client = %q/%v", discharged.Status, discharged.DischargedAt)
	}

	// Lifecycle is forward-only.
	if _, err := clientSvc.Activate(ctx, c.ID); err == nil {
		t.Error("expected error re-activating a discharged client")
	}
}

func TestAppointmentBooking_OverlapRejected(t *testing.T) {
	ctx := context.Background()
	tenantSvc, clientSvc, apptSvc, _ := newCareStack(t)

	tn := createTestTenant(t, ctx, tenantSvc, 0)
	c := createTestClient(t, ctx, clientSvc, tn.ID)
	therapist := uuid.New()

	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
	first := &appointment.Appointment{
		TenantID:    tn.ID,
		ClientID:    c.ID,
		TherapistID: therapist,
		StartsAt:    start,
		EndsAt:      start.Add(time.Hour),
	}
	if err := apptSvc.Book(ctx, first); err != nil {
		t.Fatalf("book first appointment: %v", err)
	}
	if first.Status != appointment.StatusScheduled {
		t.Errorf("status = %q, want scheduled", first.Status)
	}

	overlapping := &appointment.Appointment{
		TenantID:    tn.ID,
		ClientID:    c.ID,
		TherapistID: therapist,
		StartsAt:    start.Add(30 * time.Minute),
		EndsAt:      start.Add(90 * time.Minute),
	}
	err := apptSvc.Book(ctx, overlapping)
	if err == nil {
		t.Fatal("expected overlap rejection")
	}
	if !strings.Contains(err.Error(), "already booked") {
		t.Errorf("unexpected error: %v", err)
	}

	// Cancelling frees the slot.
	if _, err := apptSvc.Cancel(ctx, first.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := apptSvc.Book(ctx, overlapping); err != nil {
		t.Errorf("booking after cancel should succeed: %v", err)
	}
}

func TestReportDraftAndFinalize(t *testing.T) {
	ctx := context.Background()
	tenantSvc, clientSvc, _, reportSvc := newCareStack(t)

	tn := createTestTenant(t, ctx, tenantSvc, 0)
	c := createTestClient(t, ctx, clientSvc, tn.ID)
	therapist := uuid.New()

	r := &report.Report{
		TenantID:    tn.ID,
		ClientID:    c.ID,
		TherapistID: therapist,
		Type:        report.TypeIntake,
		Fields:      report.Fields{"presenting_problem": "anxiety"},
	}
	if err := reportSvc.Create(ctx, r); err != nil {
		t.Fatalf("create report: %v", err)
	}

	// Incomplete reports cannot be finalized.
	if _, err := reportSvc.Finalize(ctx, r.ID); err == nil {
		t.Fatal("expected error finalizing incomplete report")
	}

	if _, err := reportSvc.Update(ctx, r.ID, report.Fields{
		"history":      "first contact",
		"initial_plan": "weekly sessions",
	}); err != nil {
		t.Fatalf("update report: %v", err)
	}

	final, err := reportSvc.Finalize(ctx, r.ID)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if final.Status != report.StatusFinal || final.FinalizedAt == nil {
		t.Errorf("finalized report = %q/%v", final.Status, final.FinalizedAt)
	}

	// Final reports are immutable; finalize is idempotent.
	if _, err := reportSvc.Update(ctx, r.ID, report.Fields{"history": "rewritten"}); err == nil {
		t.Error("expected error editing a final report")
	}
	again, err := reportSvc.Finalize(ctx, r.ID)
	if err != nil {
		t.Fatalf("second finalize: %v", err)
	}
	if delta := again.FinalizedAt.Sub(*final.FinalizedAt); delta < -time.Second || delta > time.Second {
		t.Errorf("second finalize moved the timestamp by %v", delta)
	}
}

func TestTenantIsolation_Services(t *testing.T) {
	ctx := context.Background()
	templateSvc, tenantSvc, serviceSvc, _ := newCopyStack(t)

	tnA := createTestTenant(t, ctx, tenantSvc, 10)
	tnB := createTestTenant(t, ctx, tenantSvc, 20)

	tmplID := seedTemplate(t, ctx, templateSeed{
		Name:    "Shared Session",
		Code:    "SH01",
		Formula: []float64{55},
	})

	if _, err := templateSvc.CopyTemplate(ctx, tmplID, tnA.ID, 100); err != nil {
		t.Fatalf("copy into tenant A: %v", err)
	}

	_, totalA, err := serviceSvc.ListByTenant(ctx, tnA.ID, 50, 0)
	if err != nil {
		t.Fatalf("list tenant A: %v", err)
	}
	if totalA != 1 {
		t.Errorf("tenant A services = %d, want 1", totalA)
	}

	_, totalB, err := serviceSvc.ListByTenant(ctx, tnB.ID, 50, 0)
	if err != nil {
		t.Fatalf("list tenant B: %v", err)
	}
	if totalB != 0 {
		t.Errorf("tenant B services = %d, want 0", totalB)
	}
}
