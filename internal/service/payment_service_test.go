package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/maksimkh34/KryptoBot/config"
	"github.com/maksimkh34/KryptoBot/internal/adapter/storage/jsonfile"
	"github.com/maksimkh34/KryptoBot/internal/core/domain"
	"github.com/maksimkh34/KryptoBot/internal/core/ports/mocks"
	"github.com/maksimkh34/KryptoBot/pkg/apperror"
)

// checkoutFixture wires the full checkout path: real ledger, pool, runtime
// and dispatcher over the mocked settlement client. One funding wallet
// TAlpha; alice starts at 10.00 with a 5.00 debt floor; rate 1.
type checkoutFixture struct {
	payments *PaymentService
	ledger   *LedgerService
	client   *mocks.MockSettlementClient
}

func newCheckout(t *testing.T) *checkoutFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := mocks.NewMockSettlementClient(ctrl)

	dir := t.TempDir()

	accStore := jsonfile.New(filepath.Join(dir, "accounts.json"), []*domain.Account{}, zerolog.Nop())
	ledger := NewLedgerService(accStore, adminID, decimal.RequireFromString(debtStr), zerolog.Nop())
	_, err := ledger.AddAccount(aliceID, ledgerAmount(startStr), false)
	require.NoError(t, err)

	walletStore := jsonfile.New(filepath.Join(dir, "wallets.json"), []domain.Wallet{}, zerolog.Nop())
	require.NoError(t, walletStore.Save([]domain.Wallet{domain.NewWallet("key-TAlpha", "TAlpha")}))
	pool := NewWalletPoolService(walletStore, client, zerolog.Nop())

	runtimePath := filepath.Join(dir, "runtime.json")
	require.NoError(t, os.WriteFile(runtimePath, []byte(`{"to_trx_rate":"1","bandwidth_threshold":270,"flat_fee":"0.2714"}`), 0o600))
	runtime := config.NewRuntime(runtimePath, zerolog.Nop())

	dispatcher := NewDispatchService(pool, client, runtime, zerolog.Nop())
	return &checkoutFixture{
		payments: NewPaymentService(ledger, dispatcher, client, zerolog.Nop()),
		ledger:   ledger,
		client:   client,
	}
}

// fund paints TAlpha's live state for the whole test.
func (f *checkoutFixture) fund(balance string, bandwidth int64) {
	f.client.EXPECT().Balance(gomock.Any(), "TAlpha").Return(decimal.RequireFromString(balance), nil).AnyTimes()
	f.client.EXPECT().Bandwidth(gomock.Any(), "TAlpha").Return(bandwidth, nil).AnyTimes()
}

func TestCheckout_SuccessKeepsDebit(t *testing.T) {
	f := newCheckout(t)
	f.fund("100", 300)
	f.client.EXPECT().ValidateAddress(gomock.Any(), "TDest").Return(true, nil)
	f.client.EXPECT().Transfer(gomock.Any(), "key-TAlpha", "TDest", gomock.Any()).Return("txid-1", nil)

	outcome, err := f.payments.Pay(context.Background(), aliceID, "TDest", ledgerAmount("4.00"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCompleted, outcome)
	assert.True(t, f.ledger.GetBalance(aliceID).Equal(decimal.RequireFromString("6.00")))
}

func TestCheckout_FeeBranchDebitsAmountPlusFee(t *testing.T) {
	f := newCheckout(t)
	// Below the bandwidth threshold: the flat fee applies.
	f.fund("100", 100)
	f.client.EXPECT().ValidateAddress(gomock.Any(), "TDest").Return(true, nil)
	f.client.EXPECT().Transfer(gomock.Any(), "key-TAlpha", "TDest", gomock.Any()).Return("txid-2", nil)

	outcome, err := f.payments.Pay(context.Background(), aliceID, "TDest", ledgerAmount("4.00"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCompletedWithFee, outcome)
	// 10.00 - (4.00 + 0.2714) = 5.7286, quantized to 5.73.
	assert.True(t, f.ledger.GetBalance(aliceID).Equal(decimal.RequireFromString("5.73")))
}

// The dispatched quote is the priced one: a bandwidth drop between quote
// and dispatch cannot charge a fee-free debit as a fee-bearing payment.
func TestCheckout_ChargeMatchesOutcomeWhenBandwidthShifts(t *testing.T) {
	f := newCheckout(t)
	f.client.EXPECT().Balance(gomock.Any(), "TAlpha").Return(decimal.RequireFromString("100"), nil).AnyTimes()
	f.client.EXPECT().ValidateAddress(gomock.Any(), "TDest").Return(true, nil)
	// Above the threshold at quote time, never consulted again after.
	f.client.EXPECT().Bandwidth(gomock.Any(), "TAlpha").Return(int64(300), nil).Times(1)
	f.client.EXPECT().Transfer(gomock.Any(), "key-TAlpha", "TDest", gomock.Any()).Return("txid-3", nil)

	outcome, err := f.payments.Pay(context.Background(), aliceID, "TDest", ledgerAmount("4.00"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCompleted, outcome)
	// Only the fee-free amount was debited, matching the outcome.
	assert.True(t, f.ledger.GetBalance(aliceID).Equal(decimal.RequireFromString("6.00")))
}

func TestCheckout_TransferFailureRestoresBalance(t *testing.T) {
	f := newCheckout(t)
	f.fund("100", 300)
	f.client.EXPECT().ValidateAddress(gomock.Any(), "TDest").Return(true, nil)
	f.client.EXPECT().Transfer(gomock.Any(), "key-TAlpha", "TDest", gomock.Any()).Return("", errors.New("node rejected transaction"))

	outcome, err := f.payments.Pay(context.Background(), aliceID, "TDest", ledgerAmount("4.00"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeError, outcome)
	assert.True(t, f.ledger.GetBalance(aliceID).Equal(decimal.RequireFromString(startStr)))
}

// A wallet drained after the quote fails at the settlement transfer; the
// optimistic debit is credited straight back.
func TestCheckout_WalletDrainedAfterQuoteCreditsBack(t *testing.T) {
	f := newCheckout(t)
	f.fund("100", 300)
	f.client.EXPECT().ValidateAddress(gomock.Any(), "TDest").Return(true, nil)
	f.client.EXPECT().Transfer(gomock.Any(), "key-TAlpha", "TDest", gomock.Any()).Return("", errors.New("balance is not sufficient"))

	outcome, err := f.payments.Pay(context.Background(), aliceID, "TDest", ledgerAmount("4.00"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeError, outcome)
	assert.True(t, f.ledger.GetBalance(aliceID).Equal(decimal.RequireFromString(startStr)))
}

func TestCheckout_PoolInsufficientBeforeDebit(t *testing.T) {
	f := newCheckout(t)
	f.fund("1", 300)
	f.client.EXPECT().ValidateAddress(gomock.Any(), "TDest").Return(true, nil)
	// No Transfer expectation: dispatch must never be reached.

	outcome, err := f.payments.Pay(context.Background(), aliceID, "TDest", ledgerAmount("4.00"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeInsufficientFunds, outcome)
	assert.True(t, f.ledger.GetBalance(aliceID).Equal(decimal.RequireFromString(startStr)))
}

func TestCheckout_LedgerInsufficientSkipsDispatch(t *testing.T) {
	f := newCheckout(t)
	f.fund("500", 300)
	f.client.EXPECT().ValidateAddress(gomock.Any(), "TDest").Return(true, nil)
	// Pool could fund 100, but alice cannot: no Transfer expectation.

	outcome, err := f.payments.Pay(context.Background(), aliceID, "TDest", ledgerAmount("100"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeInsufficientFunds, outcome)
	assert.True(t, f.ledger.GetBalance(aliceID).Equal(decimal.RequireFromString(startStr)))
}

func TestCheckout_InvalidAddress(t *testing.T) {
	f := newCheckout(t)
	f.client.EXPECT().ValidateAddress(gomock.Any(), "not-an-address").Return(false, nil)

	outcome, err := f.payments.Pay(context.Background(), aliceID, "not-an-address", ledgerAmount("4.00"))
	assert.Equal(t, domain.OutcomeError, outcome)
	assert.Equal(t, "VAL_002", apperror.CodeOf(err))
	assert.True(t, f.ledger.GetBalance(aliceID).Equal(decimal.RequireFromString(startStr)))
}

func TestCheckout_ValidationQueryFailureRejectsAddress(t *testing.T) {
	f := newCheckout(t)
	f.client.EXPECT().ValidateAddress(gomock.Any(), "TDest").Return(false, errors.New("node down"))

	outcome, err := f.payments.Pay(context.Background(), aliceID, "TDest", ledgerAmount("4.00"))
	assert.Equal(t, domain.OutcomeError, outcome)
	assert.Equal(t, "VAL_002", apperror.CodeOf(err))
}

func TestCheckout_RejectsNonPositiveAmount(t *testing.T) {
	f := newCheckout(t)

	outcome, err := f.payments.Pay(context.Background(), aliceID, "TDest", ledgerAmount("0"))
	assert.Equal(t, domain.OutcomeError, outcome)
	assert.Equal(t, "VAL_001", apperror.CodeOf(err))
}

func TestCheckout_PrivilegedUserNeverDebited(t *testing.T) {
	f := newCheckout(t)
	f.fund("100", 300)
	f.client.EXPECT().ValidateAddress(gomock.Any(), "TDest").Return(true, nil)
	f.client.EXPECT().Transfer(gomock.Any(), "key-TAlpha", "TDest", gomock.Any()).Return("txid-4", nil)

	outcome, err := f.payments.Pay(context.Background(), adminID, "TDest", ledgerAmount("4.00"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCompleted, outcome)
	assert.True(t, domain.IsUnlimited(f.ledger.GetBalance(adminID)))
}
