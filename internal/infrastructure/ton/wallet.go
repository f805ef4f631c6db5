package ton

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/liteclient"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/ton"
	"github.com/xssnick/tonutils-go/ton/wallet"

	"tonhunter/internal/domain"
	"tonhunter/internal/domain/value"
	"tonhunter/pkg/errcodes"
)

// Transfer is an incoming payment observed on the custodial wallet.
type Transfer struct {
	AmountTon decimal.Decimal
	Comment   string
	From      string
	Hash      string
	At        time.Time
}

// Wallet is the custodial payout wallet. The network connection and key
// derivation happen lazily on first use, so the process starts fine
// without a mnemonic; operations then fail with WalletUninitialized.
type Wallet struct {
	mnemonic  string
	configURL string

	// initMu guards lazy init. A bad seed latches seedErr for good, a
	// failed liteserver connection does not: the next call retries.
	initMu  sync.Mutex
	seedErr error
	api     ton.APIClientWrapped
	wallet  *wallet.Wallet

	// sendMu serializes transfers: a seqno based wallet rejects
	// concurrent external messages.
	sendMu sync.Mutex
}

func NewWallet(mnemonic, configURL string) *Wallet {
	return &Wallet{
		mnemonic:  mnemonic,
		configURL: configURL,
	}
}

func (t *Wallet) ensureInit(ctx context.Context) error {
	if t.mnemonic == "" {
		return domain.NewError(errcodes.WalletUninitialized, "payout wallet is not configured")
	}

	t.initMu.Lock()
	defer t.initMu.Unlock()

	if t.wallet != nil {
		return nil
	}

	if t.seedErr != nil {
		return t.seedErr
	}

	pool := liteclient.NewConnectionPool()

	if err := pool.AddConnectionsFromConfigUrl(ctx, t.configURL); err != nil {
		return domain.WrapError(err, errcodes.LedgerUnavailable, "failed to connect to liteservers")
	}

	api := ton.NewAPIClient(pool).WithRetry()

	w, err := wallet.FromSeed(api, strings.Fields(t.mnemonic), wallet.V4R2)
	if err != nil {
		t.seedErr = domain.WrapError(err, errcodes.WalletUninitialized, "failed to derive wallet from seed")
		return t.seedErr
	}

	t.api = api
	t.wallet = w

	logger(ctx).Info("payout wallet initialized", "address", w.WalletAddress().String())

	return nil
}

// Address returns the custodial wallet address sellers send TON to.
func (t *Wallet) Address(ctx context.Context) (string, error) {
	if err := t.ensureInit(ctx); err != nil {
		return "", err
	}

	return t.wallet.WalletAddress().String(), nil
}

// Balance returns the current wallet balance in TON.
func (t *Wallet) Balance(ctx context.Context) (decimal.Decimal, error) {
	if err := t.ensureInit(ctx); err != nil {
		return decimal.Zero, err
	}

	block, err := t.api.CurrentMasterchainInfo(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("CurrentMasterchainInfo: %w", err)
	}

	account, err := t.api.GetAccount(ctx, block, t.wallet.WalletAddress())
	if err != nil {
		return decimal.Zero, fmt.Errorf("GetAccount: %w", err)
	}

	if !account.IsActive {
		return decimal.Zero, nil
	}

	return decimal.NewFromBigInt(account.State.Balance.Nano(), -9), nil
}

// Incoming returns the latest incoming transfers, newest first.
func (t *Wallet) Incoming(ctx context.Context, limit int) ([]Transfer, error) {
	if err := t.ensureInit(ctx); err != nil {
		return nil, err
	}

	block, err := t.api.CurrentMasterchainInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("CurrentMasterchainInfo: %w", err)
	}

	addr := t.wallet.WalletAddress()

	account, err := t.api.GetAccount(ctx, block, addr)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}

	if !account.IsActive || account.LastTxLT == 0 {
		return nil, nil
	}

	transactions, err := t.api.ListTransactions(ctx, addr, uint32(limit), account.LastTxLT, account.LastTxHash)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}

	transfers := make([]Transfer, 0, len(transactions))

	for _, tx := range transactions {
		if tx.IO.In == nil || tx.IO.In.MsgType != tlb.MsgTypeInternal {
			continue
		}

		msg := tx.IO.In.AsInternal()
		if msg.Amount.Nano().Sign() <= 0 {
			continue
		}

		transfers = append(transfers, Transfer{
			AmountTon: decimal.NewFromBigInt(msg.Amount.Nano(), -9),
			Comment:   msg.Comment(),
			From:      msg.SrcAddr.String(),
			Hash:      hex.EncodeToString(tx.Hash),
			At:        time.Unix(int64(tx.Now), 0),
		})
	}

	return transfers, nil
}

// Send transfers TON to the given address and returns the transaction
// hash. Transfers are serialized.
func (t *Wallet) Send(ctx context.Context, to value.TonAddress, amount decimal.Decimal, comment string) (string, error) {
	if err := t.ensureInit(ctx); err != nil {
		return "", err
	}

	addr, err := address.ParseAddr(to.String())
	if err != nil {
		return "", domain.WrapError(err, errcodes.InvalidAddress, "failed to parse address")
	}

	t.sendMu.Lock()
	defer t.sendMu.Unlock()

	coins := tlb.FromNanoTON(amount.Shift(9).BigInt())

	msg, err := t.wallet.BuildTransfer(addr, coins, false, comment)
	if err != nil {
		return "", domain.WrapError(err, errcodes.PayoutFailed, "failed to build transfer")
	}

	tx, _, err := t.wallet.SendWaitTransaction(ctx, msg)
	if err != nil {
		return "", domain.WrapError(err, errcodes.PayoutFailed, "failed to send transfer")
	}

	hash := hex.EncodeToString(tx.Hash)

	logger(ctx).Info("payout sent",
		"to", to.Short(),
		"amount_ton", amount.String(),
		"tx_hash", hash,
	)

	return hash, nil
}
