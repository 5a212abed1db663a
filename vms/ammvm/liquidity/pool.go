// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package liquidity implements constant-product liquidity pools and their
// delegated swap allowances.
//
// Every mutating operation checks its preconditions, writes the new
// reserves, shares and allowances, and only then moves assets. An operation
// that fails undoes all of it: its writes, its transfers and the in-memory
// record. A pool that is mid-operation rejects any call re-entering it.
package liquidity

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/ids"

	"github.com/luxfi/amm/vms/ammvm/assets"
	"github.com/luxfi/amm/vms/ammvm/guard"
	"github.com/luxfi/amm/vms/ammvm/reserve"
)

var _ LiquidityPool = (*Pool)(nil)

// LiquidityPool is the contract shared by native and token pools.
type LiquidityPool interface {
	Address() ids.ShortID
	Kind() Kind

	// Initialize seeds the reserves. Native pools take amountX from the
	// attached value.
	Initialize(call assets.Call, amountX, amountY *uint256.Int) (*LiquidityAdded, error)
	// ProvideLiquidity deposits amountX plus the matching amount of Y at the
	// current ratio. Native pools take amountX from the attached value.
	ProvideLiquidity(call assets.Call, amountX *uint256.Int) (*LiquidityAdded, error)
	WithdrawLiquidity(call assets.Call, shares *uint256.Int) (*LiquidityRemoved, error)
	// Swap exchanges amountIn of one side for the other. Native X input is
	// taken from the attached value.
	Swap(call assets.Call, amountIn *uint256.Int, direction Direction) (*Swapped, error)
	Approve(call assets.Call, spender ids.ShortID, amount *uint256.Int, direction Direction) (*Approval, error)
	// SwapFrom swaps owner's funds on the authority of the caller's allowance.
	// Output is always paid to owner.
	SwapFrom(call assets.Call, owner ids.ShortID, amountIn *uint256.Int) (*Swapped, error)
}

// Pool is a liquidity pool loaded from a Store.
type Pool struct {
	store *Store
	rec   *Record
	x, y  side
}

func (p *Pool) Address() ids.ShortID {
	return p.rec.Address
}

func (p *Pool) Kind() Kind {
	return p.rec.Kind
}

func (p *Pool) Owner() ids.ShortID {
	return p.rec.Owner
}

func (p *Pool) Assets() (ids.ID, ids.ID) {
	return p.rec.AssetX, p.rec.AssetY
}

func (p *Pool) FeePerMille() uint16 {
	return p.rec.FeePerMille
}

func (p *Pool) Initialized() bool {
	return p.rec.Initialized
}

// Record returns a copy of the pool's persisted state.
func (p *Pool) Record() Record {
	return *p.rec
}

func (p *Pool) Reserves() (*uint256.Int, *uint256.Int) {
	return p.rec.ReserveX.Clone(), p.rec.ReserveY.Clone()
}

func (p *Pool) TotalShares() *uint256.Int {
	return p.rec.TotalShares.Clone()
}

// LiquidityOf returns the shares held by provider.
func (p *Pool) LiquidityOf(provider ids.ShortID) (*uint256.Int, error) {
	return p.store.getShares(p.rec.Address, provider)
}

// AllowanceOf returns the allowance owner granted spender and whether one
// was ever granted.
func (p *Pool) AllowanceOf(owner, spender ids.ShortID) (Allowance, bool, error) {
	a, err := p.store.getAllowance(p.rec.Address, owner, spender)
	if err != nil || a == nil {
		return Allowance{}, false, err
	}
	return *a, true, nil
}

// Quote returns the output a swap of amountIn in the given direction would
// currently pay.
func (p *Pool) Quote(amountIn *uint256.Int, direction Direction) (*uint256.Int, error) {
	if err := p.requireInitialized(); err != nil {
		return nil, err
	}
	if !direction.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDirection, direction)
	}
	_, _, reserveIn, reserveOut := p.sides(direction)
	amountOut, _, err := reserve.AmountOut(amountIn, reserveIn, reserveOut, p.rec.FeePerMille)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOverflow, err)
	}
	return amountOut, nil
}

func (p *Pool) Initialize(call assets.Call, amountX, amountY *uint256.Int) (_ *LiquidityAdded, err error) {
	done, err := p.begin()
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := guard.RequireCaller(call.Caller, p.rec.Owner); err != nil {
		return nil, err
	}
	if p.rec.Initialized {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInitialized, p.rec.Address)
	}
	amountX, err = p.input(p.x, call, amountX)
	if err != nil {
		return nil, err
	}
	amountY, err = p.input(p.y, assets.Call{Caller: call.Caller}, amountY)
	if err != nil {
		return nil, err
	}
	if amountX.IsZero() || amountY.IsZero() {
		return nil, ErrNotAboveZero
	}

	p.rec.Initialized = true
	p.rec.ReserveX.Set(amountX)
	p.rec.ReserveY.Set(amountY)
	p.rec.TotalShares.Set(amountX)
	if err := p.save(); err != nil {
		return nil, err
	}
	if err := p.store.putShares(p.rec.Address, call.Caller, amountX); err != nil {
		return nil, err
	}

	if err := p.pull(p.x, call, call.Caller, amountX); err != nil {
		return nil, err
	}
	if err := p.pull(p.y, call, call.Caller, amountY); err != nil {
		return nil, err
	}

	e := &LiquidityAdded{
		Pool:      p.rec.Address,
		Provider:  call.Caller,
		Liquidity: amountX.Clone(),
		DepositX:  amountX,
		DepositY:  amountY,
	}
	p.store.sink.Emit(e)
	return e, nil
}

func (p *Pool) ProvideLiquidity(call assets.Call, amountX *uint256.Int) (_ *LiquidityAdded, err error) {
	done, err := p.begin()
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := p.requireInitialized(); err != nil {
		return nil, err
	}
	amountX, err = p.input(p.x, call, amountX)
	if err != nil {
		return nil, err
	}
	if amountX.IsZero() {
		return nil, ErrNotAboveZero
	}

	rec := p.rec
	amountY, err := reserve.Counterpart(amountX, &rec.ReserveX, &rec.ReserveY)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOverflow, err)
	}
	shares, err := reserve.SharesFor(amountX, &rec.TotalShares, &rec.ReserveX)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOverflow, err)
	}
	// A deposit too small to mint shares, or to require any Y, is refused.
	if shares.IsZero() || amountY.IsZero() {
		return nil, ErrNotAboveZero
	}
	held, err := p.store.getShares(rec.Address, call.Caller)
	if err != nil {
		return nil, err
	}
	if err := addAll(
		addition{&rec.ReserveX, amountX},
		addition{&rec.ReserveY, amountY},
		addition{&rec.TotalShares, shares},
		addition{held, shares},
	); err != nil {
		return nil, err
	}

	if err := p.save(); err != nil {
		return nil, err
	}
	if err := p.store.putShares(rec.Address, call.Caller, held); err != nil {
		return nil, err
	}

	if err := p.pull(p.x, call, call.Caller, amountX); err != nil {
		return nil, err
	}
	if err := p.pull(p.y, call, call.Caller, amountY); err != nil {
		return nil, err
	}

	e := &LiquidityAdded{
		Pool:      rec.Address,
		Provider:  call.Caller,
		Liquidity: shares,
		DepositX:  amountX,
		DepositY:  amountY,
	}
	p.store.sink.Emit(e)
	return e, nil
}

func (p *Pool) WithdrawLiquidity(call assets.Call, shares *uint256.Int) (_ *LiquidityRemoved, err error) {
	done, err := p.begin()
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := p.requireInitialized(); err != nil {
		return nil, err
	}
	if call.HasValue() {
		return nil, ErrNativeNotAccepted
	}
	if shares == nil || shares.IsZero() {
		return nil, ErrNotAboveZero
	}

	rec := p.rec
	held, err := p.store.getShares(rec.Address, call.Caller)
	if err != nil {
		return nil, err
	}
	if held.Lt(shares) {
		return nil, fmt.Errorf("%w: holds %s, requested %s", ErrNotEnoughLiquidity, held, shares)
	}
	// Burning every share would empty an initialized pool.
	if !shares.Lt(&rec.TotalShares) {
		withdrawable := new(uint256.Int).SubUint64(&rec.TotalShares, 1)
		return nil, fmt.Errorf("%w: an initialized pool keeps at least 1 share outstanding, %s holds %s of %s shares and may withdraw at most %s",
			ErrNotEnoughLiquidity, call.Caller, held, &rec.TotalShares, withdrawable)
	}
	eligibleX, eligibleY, err := reserve.Redeem(shares, &rec.ReserveX, &rec.ReserveY, &rec.TotalShares)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOverflow, err)
	}

	rec.ReserveX.Sub(&rec.ReserveX, eligibleX)
	rec.ReserveY.Sub(&rec.ReserveY, eligibleY)
	rec.TotalShares.Sub(&rec.TotalShares, shares)
	held.Sub(held, shares)
	if err := p.save(); err != nil {
		return nil, err
	}
	if err := p.store.putShares(rec.Address, call.Caller, held); err != nil {
		return nil, err
	}

	if err := p.push(p.x, call.Caller, eligibleX); err != nil {
		return nil, err
	}
	if err := p.push(p.y, call.Caller, eligibleY); err != nil {
		return nil, err
	}

	e := &LiquidityRemoved{
		Pool:       rec.Address,
		Provider:   call.Caller,
		Liquidity:  shares.Clone(),
		WithdrawnX: eligibleX,
		WithdrawnY: eligibleY,
	}
	p.store.sink.Emit(e)
	return e, nil
}

func (p *Pool) Swap(call assets.Call, amountIn *uint256.Int, direction Direction) (_ *Swapped, err error) {
	done, err := p.begin()
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := p.requireInitialized(); err != nil {
		return nil, err
	}
	if !direction.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDirection, direction)
	}
	in, out, _, _ := p.sides(direction)
	amountIn, err = p.input(in, call, amountIn)
	if err != nil {
		return nil, err
	}
	if amountIn.IsZero() {
		return nil, ErrNotAboveZero
	}

	amountOut, err := p.applySwap(amountIn, direction)
	if err != nil {
		return nil, err
	}

	if err := p.pull(in, call, call.Caller, amountIn); err != nil {
		return nil, err
	}
	if err := p.push(out, call.Caller, amountOut); err != nil {
		return nil, err
	}

	e := &Swapped{
		Pool:      p.rec.Address,
		Caller:    call.Caller,
		AmountIn:  amountIn,
		AmountOut: amountOut,
		Direction: direction,
	}
	p.store.sink.Emit(e)
	return e, nil
}

func (p *Pool) Approve(call assets.Call, spender ids.ShortID, amount *uint256.Int, direction Direction) (_ *Approval, err error) {
	done, err := p.begin()
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := p.requireInitialized(); err != nil {
		return nil, err
	}
	if call.HasValue() {
		return nil, ErrNativeNotAccepted
	}
	if !direction.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDirection, direction)
	}

	a := &Allowance{Direction: direction}
	if amount != nil {
		a.Remaining.Set(amount)
	}
	if err := p.store.putAllowance(p.rec.Address, call.Caller, spender, a); err != nil {
		return nil, err
	}

	e := &Approval{
		Pool:      p.rec.Address,
		Owner:     call.Caller,
		Spender:   spender,
		Amount:    a.Remaining.Clone(),
		Direction: direction,
	}
	p.store.sink.Emit(e)
	return e, nil
}

func (p *Pool) SwapFrom(call assets.Call, owner ids.ShortID, amountIn *uint256.Int) (_ *Swapped, err error) {
	done, err := p.begin()
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := p.requireInitialized(); err != nil {
		return nil, err
	}
	spender := call.Caller
	allowance, err := p.store.getAllowance(p.rec.Address, owner, spender)
	if err != nil {
		return nil, err
	}
	if allowance == nil {
		return nil, fmt.Errorf("%w: %s has no allowance from %s", ErrNotEnoughAllowance, spender, owner)
	}
	direction := allowance.Direction
	in, out, _, _ := p.sides(direction)
	amountIn, err = p.input(in, call, amountIn)
	if err != nil {
		return nil, err
	}
	if amountIn.IsZero() {
		return nil, ErrNotAboveZero
	}
	if allowance.Remaining.Lt(amountIn) {
		return nil, fmt.Errorf("%w: remaining %s, requested %s", ErrNotEnoughAllowance, &allowance.Remaining, amountIn)
	}

	allowance.Remaining.Sub(&allowance.Remaining, amountIn)
	if err := p.store.putAllowance(p.rec.Address, owner, spender, allowance); err != nil {
		return nil, err
	}
	amountOut, err := p.applySwap(amountIn, direction)
	if err != nil {
		return nil, err
	}

	if err := p.pull(in, call, owner, amountIn); err != nil {
		return nil, err
	}
	if err := p.push(out, owner, amountOut); err != nil {
		return nil, err
	}

	e := &Swapped{
		Pool:      p.rec.Address,
		Caller:    owner,
		AmountIn:  amountIn,
		AmountOut: amountOut,
		Direction: direction,
	}
	p.store.sink.Emit(e)
	return e, nil
}

// applySwap prices amountIn, applies the trade to the reserves and
// statistics, and persists the pool.
func (p *Pool) applySwap(amountIn *uint256.Int, direction Direction) (*uint256.Int, error) {
	_, _, reserveIn, reserveOut := p.sides(direction)
	amountOut, net, err := reserve.AmountOut(amountIn, reserveIn, reserveOut, p.rec.FeePerMille)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOverflow, err)
	}
	if amountOut.IsZero() {
		return nil, ErrNotAboveZero
	}

	// The whole input joins the reserve, fee included, so the fee accrues to
	// the providers' shares.
	if _, overflow := reserveIn.AddOverflow(reserveIn, amountIn); overflow {
		return nil, ErrOverflow
	}
	reserveOut.Sub(reserveOut, amountOut)

	fees, volume := &p.rec.FeesX, &p.rec.VolumeX
	if direction == YToX {
		fees, volume = &p.rec.FeesY, &p.rec.VolumeY
	}
	fee := new(uint256.Int).Sub(amountIn, net)
	saturatingAdd(fees, fee)
	saturatingAdd(volume, amountIn)
	p.rec.TxCount++

	return amountOut, p.save()
}

// begin marks the pool as mid-operation and opens a batch over its store
// and ledger. done must be called with the operation's result: on failure
// it restores the pool and discards every write and transfer of the batch.
func (p *Pool) begin() (done func(error) error, err error) {
	release, err := p.store.enter(p.rec.Address)
	if err != nil {
		return nil, err
	}
	saved := *p.rec
	end := p.store.begin()

	return func(opErr error) error {
		defer release()
		if opErr != nil {
			*p.rec = saved
			return errors.Join(opErr, end(false))
		}
		if err := end(true); err != nil {
			*p.rec = saved
			return err
		}
		return nil
	}, nil
}

// sides returns the input and output sides of a swap in direction together
// with pointers to their reserves.
func (p *Pool) sides(direction Direction) (in, out side, reserveIn, reserveOut *uint256.Int) {
	if direction == YToX {
		return p.y, p.x, &p.rec.ReserveY, &p.rec.ReserveX
	}
	return p.x, p.y, &p.rec.ReserveX, &p.rec.ReserveY
}

// input resolves the amount an operation takes in on side s. Native input is
// whatever value the call carries. Any other input refuses attached value.
func (*Pool) input(s side, call assets.Call, amount *uint256.Int) (*uint256.Int, error) {
	if s.native() {
		return call.Attached(), nil
	}
	if call.HasValue() {
		return nil, ErrNativeNotAccepted
	}
	if amount == nil {
		return new(uint256.Int), nil
	}
	return amount.Clone(), nil
}

func (p *Pool) pull(s side, call assets.Call, from ids.ShortID, amount *uint256.Int) error {
	if err := s.pull(p.store.ledger, p.rec.Address, call, from, amount); err != nil {
		return fmt.Errorf("%w: pulling %s of %s: %w", ErrTransferFailed, amount, s.asset(), err)
	}
	return nil
}

func (p *Pool) push(s side, to ids.ShortID, amount *uint256.Int) error {
	if err := s.push(p.store.ledger, p.rec.Address, to, amount); err != nil {
		return fmt.Errorf("%w: paying %s of %s: %w", ErrTransferFailed, amount, s.asset(), err)
	}
	return nil
}

func (p *Pool) requireInitialized() error {
	if !p.rec.Initialized {
		return fmt.Errorf("%w: %s", ErrNotInitialized, p.rec.Address)
	}
	return nil
}

func (p *Pool) save() error {
	return p.store.putRecord(p.rec)
}

type addition struct {
	dst, amount *uint256.Int
}

// addAll applies every addition, or none of them if any would overflow.
func addAll(adds ...addition) error {
	for _, a := range adds {
		if _, overflow := new(uint256.Int).AddOverflow(a.dst, a.amount); overflow {
			return ErrOverflow
		}
	}
	for _, a := range adds {
		a.dst.Add(a.dst, a.amount)
	}
	return nil
}

func saturatingAdd(dst, amount *uint256.Int) {
	if _, overflow := dst.AddOverflow(dst, amount); overflow {
		dst.SetAllOne()
	}
}
