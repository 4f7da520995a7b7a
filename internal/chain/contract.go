package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"ticketHub/internal/model"
)

// Backend is the subset of ledger RPC the contract binding needs.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
}

// ContractConfig controls contract access and confirmation waits.
type ContractConfig struct {
	Address        common.Address
	PollInterval   time.Duration
	ConfirmTimeout time.Duration
	// DropAfter is the number of consecutive polls a transaction may be
	// unknown to the node before it is reported as dropped. Zero disables it.
	DropAfter int
	// MaxRetries bounds extra attempts for eth_call transport failures.
	MaxRetries int
	RetryDelay time.Duration
}

// Contract gives read and signing access to the ticket contract.
type Contract struct {
	cfg      ContractConfig
	backend  Backend
	abi      abi.ABI
	metadata *MetadataResolver
	logger   *zap.Logger
}

// NewContract binds the ticket contract at cfg.Address.
func NewContract(cfg ContractConfig, backend Backend, metadata *MetadataResolver, logger *zap.Logger) (*Contract, error) {
	if backend == nil {
		return nil, fmt.Errorf("chain backend is nil")
	}
	if cfg.Address == (common.Address{}) {
		return nil, fmt.Errorf("contract address is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	parsed, err := TicketABI()
	if err != nil {
		return nil, fmt.Errorf("parse ticket abi: %w", err)
	}
	return &Contract{
		cfg:      cfg,
		backend:  backend,
		abi:      parsed,
		metadata: metadata,
		logger:   logger,
	}, nil
}

// Address returns the bound contract address.
func (c *Contract) Address() common.Address {
	return c.cfg.Address
}

// NextID returns the next unassigned event id.
func (c *Contract) NextID(ctx context.Context) (uint64, error) {
	values, err := c.call(ctx, "nextEventId")
	if err != nil {
		return 0, err
	}
	next, err := asBigInt(values[0])
	if err != nil {
		return 0, fmt.Errorf("nextEventId: %w", err)
	}
	return uint64FromBig(next, "nextEventId")
}

// RecordAt loads one event record. Ids that revert or resolve to an empty
// record return ErrRecordNotFound.
func (c *Contract) RecordAt(ctx context.Context, id uint64) (model.ChainEventRecord, error) {
	values, err := c.call(ctx, "eventInfo", new(big.Int).SetUint64(id))
	if err != nil {
		if isExecutionReverted(err) {
			return model.ChainEventRecord{}, fmt.Errorf("event %d: %w", id, ErrRecordNotFound)
		}
		return model.ChainEventRecord{}, err
	}
	if len(values) != 9 {
		return model.ChainEventRecord{}, fmt.Errorf("eventInfo return size %d", len(values))
	}

	rec := model.ChainEventRecord{ID: id}
	if rec.Name, err = asString(values[0]); err != nil {
		return model.ChainEventRecord{}, fmt.Errorf("name: %w", err)
	}
	if rec.Description, err = asString(values[1]); err != nil {
		return model.ChainEventRecord{}, fmt.Errorf("description: %w", err)
	}
	if rec.ImageURI, err = asString(values[2]); err != nil {
		return model.ChainEventRecord{}, fmt.Errorf("imageURI: %w", err)
	}
	if rec.Date, err = asUint64(values[3], "date"); err != nil {
		return model.ChainEventRecord{}, err
	}
	if rec.PriceWei, err = asBigInt(values[4]); err != nil {
		return model.ChainEventRecord{}, fmt.Errorf("priceWei: %w", err)
	}
	if rec.Capacity, err = asUint64(values[5], "capacity"); err != nil {
		return model.ChainEventRecord{}, err
	}
	if rec.Sold, err = asUint64(values[6], "sold"); err != nil {
		return model.ChainEventRecord{}, err
	}
	if rec.Organiser, err = asAddress(values[7]); err != nil {
		return model.ChainEventRecord{}, fmt.Errorf("organiser: %w", err)
	}
	cancelled, ok := values[8].(bool)
	if !ok {
		return model.ChainEventRecord{}, fmt.Errorf("cancelled: unsupported bool type %T", values[8])
	}
	rec.Cancelled = cancelled

	// Mappings return zero values for ids that were never written.
	if rec.Organiser == (common.Address{}) && rec.Name == "" {
		return model.ChainEventRecord{}, fmt.Errorf("event %d: %w", id, ErrRecordNotFound)
	}
	return rec, nil
}

// MetadataAt resolves the display metadata of a minted ticket. Only a failed
// tokenURI call is an error; fetch problems degrade to the raw URI.
func (c *Contract) MetadataAt(ctx context.Context, tokenID uint64) (model.TicketMetadata, error) {
	values, err := c.call(ctx, "tokenURI", new(big.Int).SetUint64(tokenID))
	if err != nil {
		return model.TicketMetadata{}, fmt.Errorf("%w: %v", ErrMetadataUnavailable, err)
	}
	uri, err := asString(values[0])
	if err != nil {
		return model.TicketMetadata{}, fmt.Errorf("%w: tokenURI: %v", ErrMetadataUnavailable, err)
	}
	if c.metadata == nil {
		return model.TicketMetadata{TokenID: tokenID, URI: uri, Image: uri, Degraded: true}, nil
	}
	return c.metadata.Resolve(ctx, tokenID, uri), nil
}

func (c *Contract) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	to := c.cfg.Address
	var resp []byte
	err = withRetry(ctx, c.cfg.MaxRetries, c.cfg.RetryDelay, func(ctx context.Context) error {
		var callErr error
		resp, callErr = c.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
		if callErr != nil {
			c.logger.Debug("eth_call failed", zap.String("method", method), zap.Error(callErr))
		}
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("call %s: empty response", method)
	}
	values, err := c.abi.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("unpack %s: no values", method)
	}
	return values, nil
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asString(value interface{}) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("unsupported string type %T", value)
	}
	return s, nil
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint64(value interface{}, field string) (uint64, error) {
	v, err := asBigInt(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return uint64FromBig(v, field)
}

func uint64FromBig(value *big.Int, field string) (uint64, error) {
	if value.Sign() < 0 || !value.IsUint64() {
		return 0, fmt.Errorf("%s does not fit in uint64: %s", field, value)
	}
	return value.Uint64(), nil
}

// IsRecordNotFound reports whether err marks an absent record.
func IsRecordNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}
