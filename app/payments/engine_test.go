package payments

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guilleloma/BuildTrack-sub000/app/apperror"
	"github.com/Guilleloma/BuildTrack-sub000/app/models"
	"github.com/Guilleloma/BuildTrack-sub000/app/money"
)

// memStore is an in-memory Store. Each transaction works on a deep copy of
// the state and the copy replaces the real state only on commit, mirroring
// the all-or-nothing behavior of the SQL implementation.
type memStore struct {
	milestones map[string]*models.Milestone
	payments   map[string]*models.Payment
}

func newMemStore(milestones ...*models.Milestone) *memStore {
	s := &memStore{
		milestones: make(map[string]*models.Milestone),
		payments:   make(map[string]*models.Payment),
	}
	for _, m := range milestones {
		s.milestones[m.ID] = m
	}
	return s
}

func (s *memStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx := &memTx{
		milestones: make(map[string]*models.Milestone, len(s.milestones)),
		payments:   make(map[string]*models.Payment, len(s.payments)),
	}
	for id, m := range s.milestones {
		tx.milestones[id] = cloneMilestone(m)
	}
	for id, p := range s.payments {
		tx.payments[id] = clonePayment(p)
	}

	if err := fn(tx); err != nil {
		return err
	}
	s.milestones = tx.milestones
	s.payments = tx.payments
	return nil
}

type memTx struct {
	milestones map[string]*models.Milestone
	payments   map[string]*models.Payment
}

func (t *memTx) MilestoneForUpdate(ctx context.Context, id string) (*models.Milestone, error) {
	m, ok := t.milestones[id]
	if !ok {
		return nil, apperror.NotFound("milestone", id)
	}
	return cloneMilestone(m), nil
}

func (t *memTx) UpdateMilestonePaid(ctx context.Context, id string, paid money.Money) error {
	m, ok := t.milestones[id]
	if !ok {
		return apperror.NotFound("milestone", id)
	}
	m.PaidAmount = paid
	return nil
}

func (t *memTx) UpdateMilestoneFields(ctx context.Context, m *models.Milestone) error {
	cur, ok := t.milestones[m.ID]
	if !ok {
		return apperror.NotFound("milestone", m.ID)
	}
	c := cloneMilestone(m)
	c.PaidAmount = cur.PaidAmount
	t.milestones[m.ID] = c
	return nil
}

func (t *memTx) SoftDeleteMilestone(ctx context.Context, id string) error {
	if _, ok := t.milestones[id]; !ok {
		return apperror.NotFound("milestone", id)
	}
	delete(t.milestones, id)
	return nil
}

func (t *memTx) PaymentForUpdate(ctx context.Context, id string) (*models.Payment, error) {
	p, ok := t.payments[id]
	if !ok {
		return nil, apperror.NotFound("payment", id)
	}
	return clonePayment(p), nil
}

func (t *memTx) PaymentsForMilestone(ctx context.Context, milestoneID string) ([]*models.Payment, error) {
	var ids []string
	for id, p := range t.payments {
		if p.DistributionFor(milestoneID) != nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]*models.Payment, 0, len(ids))
	for _, id := range ids {
		out = append(out, clonePayment(t.payments[id]))
	}
	return out, nil
}

func (t *memTx) InsertPayment(ctx context.Context, p *models.Payment) error {
	t.payments[p.ID] = clonePayment(p)
	return nil
}

func (t *memTx) UpdatePayment(ctx context.Context, p *models.Payment) error {
	if _, ok := t.payments[p.ID]; !ok {
		return apperror.NotFound("payment", p.ID)
	}
	t.payments[p.ID] = clonePayment(p)
	return nil
}

func (t *memTx) DeletePayment(ctx context.Context, id string) error {
	if _, ok := t.payments[id]; !ok {
		return apperror.NotFound("payment", id)
	}
	delete(t.payments, id)
	return nil
}

func cloneMilestone(m *models.Milestone) *models.Milestone {
	c := *m
	return &c
}

func clonePayment(p *models.Payment) *models.Payment {
	c := *p
	c.Distributions = make([]*models.PaymentDistribution, len(p.Distributions))
	for i, d := range p.Distributions {
		dc := *d
		c.Distributions[i] = &dc
	}
	return &c
}

type fixedSettings struct{ rate decimal.Decimal }

func (s fixedSettings) DefaultTaxRate(ctx context.Context) (decimal.Decimal, error) {
	return s.rate, nil
}

func testMilestone(id, projectID string, budget float64, hasTax bool) *models.Milestone {
	return &models.Milestone{
		ID:        id,
		ProjectID: projectID,
		Name:      "Milestone " + id,
		Budget:    money.FromFloat(budget),
		HasTax:    hasTax,
	}
}

func testEngine(milestones ...*models.Milestone) (*Engine, *memStore) {
	store := newMemStore(milestones...)
	return NewEngine(store, fixedSettings{rate: decimal.NewFromInt(21)}), store
}

var testDate = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func TestApplySingle(t *testing.T) {
	// budget 1000 at 21% tax, total payable 1210
	eng, store := testEngine(testMilestone("m1", "p1", 1000, true))

	m, p, err := eng.ApplySingle(context.Background(), "m1", money.FromFloat(500), models.MethodBankTransfer, testDate, "first payment", "u1")
	require.NoError(t, err)

	assert.Equal(t, money.FromFloat(500), m.PaidAmount)
	assert.Equal(t, models.PaymentSingle, p.Type)
	assert.Equal(t, money.FromFloat(500), p.Amount)
	require.Len(t, p.Distributions, 1)
	assert.Equal(t, "m1", p.Distributions[0].MilestoneID)

	assert.Equal(t, money.FromFloat(500), store.milestones["m1"].PaidAmount)
	assert.Len(t, store.payments, 1)
}

func TestApplySingleUpToTotalWithTax(t *testing.T) {
	eng, store := testEngine(testMilestone("m1", "p1", 1000, true))

	_, _, err := eng.ApplySingle(context.Background(), "m1", money.FromFloat(1210), models.MethodCash, testDate, "", "u1")
	require.NoError(t, err)
	assert.Equal(t, money.FromFloat(1210), store.milestones["m1"].PaidAmount)
}

func TestApplySingleOverpaymentRejected(t *testing.T) {
	eng, store := testEngine(testMilestone("m1", "p1", 1000, true))

	_, _, err := eng.ApplySingle(context.Background(), "m1", money.FromFloat(500), models.MethodCash, testDate, "", "u1")
	require.NoError(t, err)

	// remaining is 710, requesting 800 must fail and change nothing
	_, _, err = eng.ApplySingle(context.Background(), "m1", money.FromFloat(800), models.MethodCash, testDate, "", "u1")

	var over *apperror.OverpaymentError
	require.ErrorAs(t, err, &over)
	assert.Equal(t, "m1", over.MilestoneID)
	assert.Equal(t, money.FromFloat(800), over.Requested)
	assert.Equal(t, money.FromFloat(710), over.MaxAllowed)

	assert.Equal(t, money.FromFloat(500), store.milestones["m1"].PaidAmount)
	assert.Len(t, store.payments, 1)
}

func TestApplySingleValidation(t *testing.T) {
	eng, _ := testEngine(testMilestone("m1", "p1", 100, false))

	_, _, err := eng.ApplySingle(context.Background(), "m1", money.Money(0), models.MethodCash, testDate, "", "u1")
	var v *apperror.ValidationError
	assert.ErrorAs(t, err, &v)

	_, _, err = eng.ApplySingle(context.Background(), "m1", money.FromFloat(50), "CHEQUE", testDate, "", "u1")
	assert.ErrorAs(t, err, &v)

	_, _, err = eng.ApplySingle(context.Background(), "missing", money.FromFloat(50), models.MethodCash, testDate, "", "u1")
	var nf *apperror.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestApplyDistributed(t *testing.T) {
	eng, store := testEngine(
		testMilestone("m1", "p1", 200, false),
		testMilestone("m2", "p1", 1000, false),
	)

	total := money.FromFloat(300)
	p, milestones, err := eng.ApplyDistributed(context.Background(), []Distribution{
		{MilestoneID: "m1", Amount: money.FromFloat(200)},
		{MilestoneID: "m2", Amount: money.FromFloat(100)},
	}, &total, models.MethodBizum, testDate, "split", "u1")
	require.NoError(t, err)

	assert.Equal(t, models.PaymentDistributed, p.Type)
	assert.Equal(t, money.FromFloat(300), p.Amount)
	assert.Len(t, p.Distributions, 2)
	assert.Len(t, milestones, 2)

	assert.Equal(t, money.FromFloat(200), store.milestones["m1"].PaidAmount)
	assert.Equal(t, money.FromFloat(100), store.milestones["m2"].PaidAmount)
}

func TestApplyDistributedAllOrNothing(t *testing.T) {
	eng, store := testEngine(
		testMilestone("m1", "p1", 200, false),
		testMilestone("m2", "p1", 1000, false),
	)

	// m1 can only take 200; the whole payment must fail, m2 included
	_, _, err := eng.ApplyDistributed(context.Background(), []Distribution{
		{MilestoneID: "m1", Amount: money.FromFloat(300)},
		{MilestoneID: "m2", Amount: money.FromFloat(100)},
	}, nil, models.MethodCash, testDate, "", "u1")

	var over *apperror.OverpaymentError
	require.ErrorAs(t, err, &over)
	assert.Equal(t, "m1", over.MilestoneID)
	assert.Equal(t, money.FromFloat(200), over.MaxAllowed)

	assert.Equal(t, money.Money(0), store.milestones["m1"].PaidAmount)
	assert.Equal(t, money.Money(0), store.milestones["m2"].PaidAmount)
	assert.Empty(t, store.payments)
}

func TestApplyDistributedValidation(t *testing.T) {
	eng, _ := testEngine(
		testMilestone("m1", "p1", 200, false),
		testMilestone("m2", "p2", 1000, false),
	)
	var v *apperror.ValidationError

	_, _, err := eng.ApplyDistributed(context.Background(), nil, nil, models.MethodCash, testDate, "", "u1")
	assert.ErrorAs(t, err, &v)

	badTotal := money.FromFloat(999)
	_, _, err = eng.ApplyDistributed(context.Background(), []Distribution{
		{MilestoneID: "m1", Amount: money.FromFloat(100)},
	}, &badTotal, models.MethodCash, testDate, "", "u1")
	assert.ErrorAs(t, err, &v)

	_, _, err = eng.ApplyDistributed(context.Background(), []Distribution{
		{MilestoneID: "m1", Amount: money.FromFloat(50)},
		{MilestoneID: "m1", Amount: money.FromFloat(50)},
	}, nil, models.MethodCash, testDate, "", "u1")
	assert.ErrorAs(t, err, &v)

	// m1 and m2 belong to different projects
	_, _, err = eng.ApplyDistributed(context.Background(), []Distribution{
		{MilestoneID: "m1", Amount: money.FromFloat(50)},
		{MilestoneID: "m2", Amount: money.FromFloat(50)},
	}, nil, models.MethodCash, testDate, "", "u1")
	assert.ErrorAs(t, err, &v)
}

func TestEditAmountValidatesAgainstReversedState(t *testing.T) {
	eng, store := testEngine(testMilestone("m1", "p1", 1000, true))

	_, p, err := eng.ApplySingle(context.Background(), "m1", money.FromFloat(1000), models.MethodCash, testDate, "", "u1")
	require.NoError(t, err)

	// remaining is only 210, but editing 1000 up to 1210 is legal because
	// the old 1000 is reversed before validation
	amount := money.FromFloat(1210)
	updated, err := eng.Edit(context.Background(), p.ID, EditRequest{Amount: &amount})
	require.NoError(t, err)

	assert.Equal(t, money.FromFloat(1210), updated.Amount)
	assert.Equal(t, money.FromFloat(1210), store.milestones["m1"].PaidAmount)

	// beyond the total it is still an overpayment
	amount = money.FromFloat(1300)
	_, err = eng.Edit(context.Background(), p.ID, EditRequest{Amount: &amount})
	var over *apperror.OverpaymentError
	require.ErrorAs(t, err, &over)
	assert.Equal(t, money.FromFloat(1210), store.milestones["m1"].PaidAmount)
}

func TestEditSameAmountIsNoOp(t *testing.T) {
	eng, store := testEngine(testMilestone("m1", "p1", 1000, true))

	_, p, err := eng.ApplySingle(context.Background(), "m1", money.FromFloat(500), models.MethodCash, testDate, "", "u1")
	require.NoError(t, err)

	amount := money.FromFloat(500)
	updated, err := eng.Edit(context.Background(), p.ID, EditRequest{Amount: &amount})
	require.NoError(t, err)

	assert.Equal(t, money.FromFloat(500), updated.Amount)
	assert.Equal(t, money.FromFloat(500), store.milestones["m1"].PaidAmount)
}

func TestEditMetadataKeepsAmounts(t *testing.T) {
	eng, store := testEngine(testMilestone("m1", "p1", 1000, true))

	_, p, err := eng.ApplySingle(context.Background(), "m1", money.FromFloat(500), models.MethodCash, testDate, "old", "u1")
	require.NoError(t, err)

	method := models.MethodPaypal
	desc := "new description"
	updated, err := eng.Edit(context.Background(), p.ID, EditRequest{Method: &method, Description: &desc})
	require.NoError(t, err)

	assert.Equal(t, models.MethodPaypal, updated.PaymentMethod)
	assert.Equal(t, "new description", updated.Description)
	assert.Equal(t, money.FromFloat(500), updated.Amount)
	assert.Equal(t, money.FromFloat(500), store.milestones["m1"].PaidAmount)
}

func TestEditDistributionsMovesAmountsBetweenMilestones(t *testing.T) {
	eng, store := testEngine(
		testMilestone("m1", "p1", 500, false),
		testMilestone("m2", "p1", 500, false),
	)

	p, _, err := eng.ApplyDistributed(context.Background(), []Distribution{
		{MilestoneID: "m1", Amount: money.FromFloat(400)},
		{MilestoneID: "m2", Amount: money.FromFloat(100)},
	}, nil, models.MethodCash, testDate, "", "u1")
	require.NoError(t, err)

	updated, err := eng.Edit(context.Background(), p.ID, EditRequest{Distributions: []Distribution{
		{MilestoneID: "m1", Amount: money.FromFloat(100)},
		{MilestoneID: "m2", Amount: money.FromFloat(500)},
	}})
	require.NoError(t, err)

	assert.Equal(t, money.FromFloat(600), updated.Amount)
	assert.Equal(t, money.FromFloat(100), store.milestones["m1"].PaidAmount)
	assert.Equal(t, money.FromFloat(500), store.milestones["m2"].PaidAmount)
}

func TestEditAmountOnDistributedRejected(t *testing.T) {
	eng, _ := testEngine(
		testMilestone("m1", "p1", 500, false),
		testMilestone("m2", "p1", 500, false),
	)

	p, _, err := eng.ApplyDistributed(context.Background(), []Distribution{
		{MilestoneID: "m1", Amount: money.FromFloat(100)},
		{MilestoneID: "m2", Amount: money.FromFloat(100)},
	}, nil, models.MethodCash, testDate, "", "u1")
	require.NoError(t, err)

	amount := money.FromFloat(300)
	_, err = eng.Edit(context.Background(), p.ID, EditRequest{Amount: &amount})
	var v *apperror.ValidationError
	assert.ErrorAs(t, err, &v)
}

func TestDeleteSinglePaymentReversesPaidAmount(t *testing.T) {
	eng, store := testEngine(testMilestone("m1", "p1", 1000, true))

	_, p, err := eng.ApplySingle(context.Background(), "m1", money.FromFloat(500), models.MethodCash, testDate, "", "u1")
	require.NoError(t, err)

	require.NoError(t, eng.Delete(context.Background(), p.ID, ""))

	assert.Equal(t, money.Money(0), store.milestones["m1"].PaidAmount)
	assert.Empty(t, store.payments)
}

func TestDeleteScopedToOneDistribution(t *testing.T) {
	eng, store := testEngine(
		testMilestone("m1", "p1", 500, false),
		testMilestone("m2", "p1", 500, false),
	)

	p, _, err := eng.ApplyDistributed(context.Background(), []Distribution{
		{MilestoneID: "m1", Amount: money.FromFloat(200)},
		{MilestoneID: "m2", Amount: money.FromFloat(300)},
	}, nil, models.MethodCash, testDate, "", "u1")
	require.NoError(t, err)

	require.NoError(t, eng.Delete(context.Background(), p.ID, "m1"))

	assert.Equal(t, money.Money(0), store.milestones["m1"].PaidAmount)
	assert.Equal(t, money.FromFloat(300), store.milestones["m2"].PaidAmount)

	remaining := store.payments[p.ID]
	require.NotNil(t, remaining)
	assert.Equal(t, models.PaymentDistributed, remaining.Type)
	assert.Equal(t, money.FromFloat(300), remaining.Amount)
	require.Len(t, remaining.Distributions, 1)
	assert.Equal(t, "m2", remaining.Distributions[0].MilestoneID)

	// removing the last distribution removes the payment itself
	require.NoError(t, eng.Delete(context.Background(), p.ID, "m2"))
	assert.Equal(t, money.Money(0), store.milestones["m2"].PaidAmount)
	assert.Empty(t, store.payments)
}

func TestDeleteUnknownDistribution(t *testing.T) {
	eng, _ := testEngine(
		testMilestone("m1", "p1", 500, false),
		testMilestone("m2", "p1", 500, false),
	)

	p, _, err := eng.ApplyDistributed(context.Background(), []Distribution{
		{MilestoneID: "m1", Amount: money.FromFloat(100)},
		{MilestoneID: "m2", Amount: money.FromFloat(100)},
	}, nil, models.MethodCash, testDate, "", "u1")
	require.NoError(t, err)

	err = eng.Delete(context.Background(), p.ID, "m3")
	var nf *apperror.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUpdateMilestoneGuardsPaidAmount(t *testing.T) {
	eng, store := testEngine(testMilestone("m1", "p1", 1000, true))
	ctx := context.Background()

	_, _, err := eng.ApplySingle(ctx, "m1", money.FromFloat(500), models.MethodCash, testDate, "", "u1")
	require.NoError(t, err)

	// lowering the total with tax below the recorded paid amount must fail
	// and leave the milestone untouched
	_, err = eng.UpdateMilestone(ctx, "m1", MilestoneUpdate{
		Name:   "Foundation",
		Budget: money.FromFloat(100),
		HasTax: true,
	})
	var v *apperror.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, money.FromFloat(1000), store.milestones["m1"].Budget)
	assert.Equal(t, money.FromFloat(500), store.milestones["m1"].PaidAmount)

	// a total that still covers the paid amount passes, paid stays put
	m, err := eng.UpdateMilestone(ctx, "m1", MilestoneUpdate{
		Name:   "Foundation",
		Budget: money.FromFloat(500),
		HasTax: true,
	})
	require.NoError(t, err)
	assert.Equal(t, money.FromFloat(500), m.Budget)
	assert.Equal(t, money.FromFloat(500), m.PaidAmount)
	assert.Equal(t, money.FromFloat(500), store.milestones["m1"].PaidAmount)
}

func TestUpdateMilestoneGuardUsesStoredPaidAmount(t *testing.T) {
	// the milestone starts empty, then a payment lands before the update
	// runs; the guard must see the stored paid amount, not a stale read
	eng, store := testEngine(testMilestone("m1", "p1", 1000, true))
	ctx := context.Background()

	_, _, err := eng.ApplySingle(ctx, "m1", money.FromFloat(500), models.MethodCash, testDate, "", "u1")
	require.NoError(t, err)

	_, err = eng.UpdateMilestone(ctx, "m1", MilestoneUpdate{
		Name:   "Foundation",
		Budget: money.FromFloat(300),
		HasTax: true,
	})
	var v *apperror.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, money.FromFloat(1000), store.milestones["m1"].Budget)
}

func TestDeleteMilestoneShrinksSharedPayments(t *testing.T) {
	eng, store := testEngine(
		testMilestone("m1", "p1", 500, false),
		testMilestone("m2", "p1", 500, false),
	)
	ctx := context.Background()

	p, _, err := eng.ApplyDistributed(ctx, []Distribution{
		{MilestoneID: "m1", Amount: money.FromFloat(150)},
		{MilestoneID: "m2", Amount: money.FromFloat(150)},
	}, nil, models.MethodCash, testDate, "", "u1")
	require.NoError(t, err)

	require.NoError(t, eng.DeleteMilestone(ctx, "m1"))

	// the sibling keeps its paid amount and the payment still backs it
	assert.NotContains(t, store.milestones, "m1")
	assert.Equal(t, money.FromFloat(150), store.milestones["m2"].PaidAmount)

	remaining := store.payments[p.ID]
	require.NotNil(t, remaining)
	assert.Equal(t, money.FromFloat(150), remaining.Amount)
	require.Len(t, remaining.Distributions, 1)
	assert.Equal(t, "m2", remaining.Distributions[0].MilestoneID)
}

func TestDeleteMilestoneRemovesSolePayments(t *testing.T) {
	eng, store := testEngine(testMilestone("m1", "p1", 1000, true))
	ctx := context.Background()

	_, _, err := eng.ApplySingle(ctx, "m1", money.FromFloat(200), models.MethodCash, testDate, "", "u1")
	require.NoError(t, err)
	_, _, err = eng.ApplySingle(ctx, "m1", money.FromFloat(300), models.MethodBizum, testDate, "", "u1")
	require.NoError(t, err)

	require.NoError(t, eng.DeleteMilestone(ctx, "m1"))

	assert.NotContains(t, store.milestones, "m1")
	assert.Empty(t, store.payments)
}

func TestDeleteMissingMilestone(t *testing.T) {
	eng, _ := testEngine(testMilestone("m1", "p1", 100, false))

	err := eng.DeleteMilestone(context.Background(), "missing")
	var nf *apperror.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestPaidNeverExceedsTotalAcrossSequence(t *testing.T) {
	eng, store := testEngine(testMilestone("m1", "p1", 1000, true))
	ctx := context.Background()

	_, p1, err := eng.ApplySingle(ctx, "m1", money.FromFloat(600), models.MethodCash, testDate, "", "u1")
	require.NoError(t, err)
	_, _, err = eng.ApplySingle(ctx, "m1", money.FromFloat(610), models.MethodCash, testDate, "", "u1")
	require.NoError(t, err)

	// fully paid: any further payment or upward edit must fail
	_, _, err = eng.ApplySingle(ctx, "m1", money.Money(1), models.MethodCash, testDate, "", "u1")
	var over *apperror.OverpaymentError
	assert.ErrorAs(t, err, &over)

	amount := money.FromFloat(601)
	_, err = eng.Edit(ctx, p1.ID, EditRequest{Amount: &amount})
	assert.ErrorAs(t, err, &over)

	assert.Equal(t, money.FromFloat(1210), store.milestones["m1"].PaidAmount)
}
