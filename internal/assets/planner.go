package assets

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// ContractCaller is the read-only slice of an RPC client the planner needs.
// *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// TransferItem is one contract call issued by the compromised account.
type TransferItem struct {
	To      common.Address
	Data    []byte
	TokenID *big.Int // nil for ERC-20 transfers
}

// Plan is the ordered list of asset movements for one attempt.
type Plan struct {
	Kind  Kind
	Items []TransferItem
}

// Empty reports that there is nothing to move this block.
func (p Plan) Empty() bool { return len(p.Items) == 0 }

// Summary describes a plan for the operator.
type Summary struct {
	Kind     Kind
	Amount   *big.Int
	Display  string
	Symbol   string
	Decimals uint8
	TokenIDs []*big.Int
}

func (s Summary) String() string {
	switch s.Kind {
	case Fungible:
		return fmt.Sprintf("%s %s", s.Display, s.Symbol)
	case NonFungible:
		ids := make([]string, 0, len(s.TokenIDs))
		for _, id := range s.TokenIDs {
			ids = append(ids, "#"+id.String())
		}
		return fmt.Sprintf("%d NFTs (%s)", len(s.TokenIDs), strings.Join(ids, ", "))
	}
	return "nothing"
}

// Planner produces transfer plans for one contract and one pair of accounts.
type Planner struct {
	kind     Kind
	contract common.Address
	from     common.Address
	to       common.Address
	tokenIDs []*big.Int
	caller   ContractCaller
}

// NewPlanner binds a planner. tokenIDs is only used for NonFungible.
func NewPlanner(caller ContractCaller, kind Kind, contract, from, to common.Address, tokenIDs []*big.Int) (*Planner, error) {
	if caller == nil {
		return nil, errors.New("planner: nil contract caller")
	}
	if kind != Fungible && kind != NonFungible {
		return nil, fmt.Errorf("planner: unsupported asset kind %v", kind)
	}
	ids := make([]*big.Int, len(tokenIDs))
	for i, id := range tokenIDs {
		ids[i] = new(big.Int).Set(id)
	}
	return &Planner{
		kind:     kind,
		contract: contract,
		from:     from,
		to:       to,
		tokenIDs: ids,
		caller:   caller,
	}, nil
}

func (p *Planner) Kind() Kind { return p.kind }

func (p *Planner) Contract() common.Address { return p.contract }

// Plan reads the current on-chain state and returns what to move now.
// A zero balance or an empty id list yields an empty plan and no error.
func (p *Planner) Plan(ctx context.Context) (Plan, Summary, error) {
	switch p.kind {
	case Fungible:
		return p.planFungible(ctx)
	case NonFungible:
		return p.planNonFungible()
	}
	return Plan{}, Summary{}, fmt.Errorf("unsupported asset kind %v", p.kind)
}

func (p *Planner) planFungible(ctx context.Context) (Plan, Summary, error) {
	empty := Plan{Kind: Fungible}

	balance, err := p.balanceOf(ctx)
	if err != nil {
		return empty, Summary{}, fmt.Errorf("balanceOf: %w", err)
	}
	if balance.Sign() == 0 {
		return empty, Summary{Kind: Fungible, Amount: balance}, nil
	}

	var symbol string
	if err := p.call(ctx, &symbol, "symbol"); err != nil {
		return empty, Summary{}, fmt.Errorf("symbol: %w", err)
	}
	var decimals uint8
	if err := p.call(ctx, &decimals, "decimals"); err != nil {
		return empty, Summary{}, fmt.Errorf("decimals: %w", err)
	}

	data, err := ERC20ABI.Pack("transfer", p.to, balance)
	if err != nil {
		return empty, Summary{}, fmt.Errorf("pack transfer: %w", err)
	}
	plan := Plan{Kind: Fungible, Items: []TransferItem{{To: p.contract, Data: data}}}
	sum := Summary{
		Kind:     Fungible,
		Amount:   balance,
		Display:  FormatUnits(balance, decimals),
		Symbol:   symbol,
		Decimals: decimals,
	}
	return plan, sum, nil
}

func (p *Planner) planNonFungible() (Plan, Summary, error) {
	plan := Plan{Kind: NonFungible}
	if len(p.tokenIDs) == 0 {
		return plan, Summary{Kind: NonFungible}, nil
	}
	plan.Items = make([]TransferItem, 0, len(p.tokenIDs))
	for _, id := range p.tokenIDs {
		data, err := ERC721ABI.Pack("transferFrom", p.from, p.to, id)
		if err != nil {
			return Plan{Kind: NonFungible}, Summary{}, fmt.Errorf("pack transferFrom(%s): %w", id, err)
		}
		plan.Items = append(plan.Items, TransferItem{To: p.contract, Data: data, TokenID: new(big.Int).Set(id)})
	}
	return plan, Summary{Kind: NonFungible, TokenIDs: p.tokenIDs}, nil
}

func (p *Planner) balanceOf(ctx context.Context) (*big.Int, error) {
	var bal *big.Int
	if err := p.call(ctx, &bal, "balanceOf", p.from); err != nil {
		return nil, err
	}
	if bal == nil {
		return big.NewInt(0), nil
	}
	return bal, nil
}

// call runs a view method of the ERC-20 ABI and decodes its single output.
func (p *Planner) call(ctx context.Context, out interface{}, method string, args ...interface{}) error {
	data, err := ERC20ABI.Pack(method, args...)
	if err != nil {
		return err
	}
	ret, err := p.caller.CallContract(ctx, ethereum.CallMsg{To: &p.contract, Data: data}, nil)
	if err != nil {
		return err
	}
	if len(ret) == 0 {
		return fmt.Errorf("%s: empty return data (not a contract?)", method)
	}
	return ERC20ABI.UnpackIntoInterface(out, method, ret)
}
