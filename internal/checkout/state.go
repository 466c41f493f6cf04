// Package checkout models the multi-step checkout flow as an explicit state
// machine. Every transition takes a State value and returns the next snapshot;
// nothing is shared or mutated in place, and no transition before
// StepOrderComplete has side effects.
package checkout

import "errors"

type Step string

const (
	StepCart               Step = "CART"
	StepPaymentEntry       Step = "PAYMENT_ENTRY"
	StepMemberLookup       Step = "MEMBER_LOOKUP"
	StepNewMemberOffer     Step = "NEW_MEMBER_OFFER"
	StepMemberRegistration Step = "MEMBER_REGISTRATION"
	StepOrderComplete      Step = "ORDER_COMPLETE"
)

func (s Step) IsTerminal() bool {
	return s == StepOrderComplete
}

func (s Step) String() string {
	return string(s)
}

var (
	ErrEmptyCart         = errors.New("cart is empty, nothing to check out")
	ErrInsufficientCash  = errors.New("cash received is less than the order total")
	ErrIllegalTransition = errors.New("illegal checkout step transition")
	ErrRequestInFlight   = errors.New("a request is already in flight")
	ErrNoRequestInFlight = errors.New("no request in flight")
)

type Line struct {
	ProductID  int64
	Name       string
	UnitPrice  float64
	UnitPoints int
	Quantity   int
}

type State struct {
	Step         Step
	Lines        []Line
	CashReceived float64
	MemberID     *int64
	OrderNumber  string

	// InFlight disables the triggering control while a network call is
	// outstanding (double-submit protection).
	InFlight bool
}

func New() State {
	return State{Step: StepCart}
}

func (s State) Total() float64 {
	var total float64
	for _, l := range s.Lines {
		total += l.UnitPrice * float64(l.Quantity)
	}
	return total
}

func (s State) TotalPoints() int {
	var points int
	for _, l := range s.Lines {
		points += l.UnitPoints * l.Quantity
	}
	return points
}

func (s State) Change() float64 {
	return s.CashReceived - s.Total()
}

// AddLine merges quantity into an existing line for the same product.
func (s State) AddLine(line Line) (State, error) {
	if s.Step != StepCart {
		return s, ErrIllegalTransition
	}
	if line.Quantity <= 0 {
		return s, errors.New("quantity must be positive")
	}
	next := s.clone()
	for i, l := range next.Lines {
		if l.ProductID == line.ProductID {
			next.Lines[i].Quantity += line.Quantity
			return next, nil
		}
	}
	next.Lines = append(next.Lines, line)
	return next, nil
}

func (s State) RemoveLine(productID int64) (State, error) {
	if s.Step != StepCart {
		return s, ErrIllegalTransition
	}
	next := s.clone()
	for i, l := range next.Lines {
		if l.ProductID == productID {
			next.Lines = append(next.Lines[:i], next.Lines[i+1:]...)
			return next, nil
		}
	}
	return next, nil
}

// BeginPayment moves Cart -> PaymentEntry. The cart must not be empty.
func (s State) BeginPayment() (State, error) {
	if s.Step != StepCart {
		return s, ErrIllegalTransition
	}
	if len(s.Lines) == 0 {
		return s, ErrEmptyCart
	}
	next := s.clone()
	next.Step = StepPaymentEntry
	return next, nil
}

// EnterCash records the tendered amount. Advancing past payment requires
// covering the total; short cash is rejected here and again server-side.
func (s State) EnterCash(cash float64) (State, error) {
	if s.Step != StepPaymentEntry {
		return s, ErrIllegalTransition
	}
	if cash < s.Total() {
		return s, ErrInsufficientCash
	}
	next := s.clone()
	next.CashReceived = cash
	return next, nil
}

// ChooseLoyalty branches into the member lookup after payment entry.
func (s State) ChooseLoyalty() (State, error) {
	if s.Step != StepPaymentEntry || s.CashReceived < s.Total() {
		return s, ErrIllegalTransition
	}
	next := s.clone()
	next.Step = StepMemberLookup
	return next, nil
}

// MemberFound records a looked-up member and leaves the state ready for
// completion with that member attached.
func (s State) MemberFound(memberID int64) (State, error) {
	if s.Step != StepMemberLookup {
		return s, ErrIllegalTransition
	}
	next := s.clone()
	next.MemberID = &memberID
	return next, nil
}

func (s State) MemberNotFound() (State, error) {
	if s.Step != StepMemberLookup {
		return s, ErrIllegalTransition
	}
	next := s.clone()
	next.Step = StepNewMemberOffer
	return next, nil
}

func (s State) AcceptMembershipOffer() (State, error) {
	if s.Step != StepNewMemberOffer {
		return s, ErrIllegalTransition
	}
	next := s.clone()
	next.Step = StepMemberRegistration
	return next, nil
}

// DeclineMembershipOffer clears any loyalty choice; the order completes as a
// guest checkout.
func (s State) DeclineMembershipOffer() (State, error) {
	if s.Step != StepNewMemberOffer {
		return s, ErrIllegalTransition
	}
	next := s.clone()
	next.MemberID = nil
	return next, nil
}

func (s State) Registered(memberID int64) (State, error) {
	if s.Step != StepMemberRegistration {
		return s, ErrIllegalTransition
	}
	next := s.clone()
	next.MemberID = &memberID
	return next, nil
}

// BeginRequest marks a network call in flight. A second call while one is
// outstanding is refused, which is what keeps a double-click from submitting
// the same order twice.
func (s State) BeginRequest() (State, error) {
	if s.InFlight {
		return s, ErrRequestInFlight
	}
	next := s.clone()
	next.InFlight = true
	return next, nil
}

func (s State) EndRequest() (State, error) {
	if !s.InFlight {
		return s, ErrNoRequestInFlight
	}
	next := s.clone()
	next.InFlight = false
	return next, nil
}

// Complete is the only terminal transition; it is taken after the server has
// persisted the order.
func (s State) Complete(orderNumber string) (State, error) {
	switch s.Step {
	case StepPaymentEntry, StepMemberLookup, StepNewMemberOffer, StepMemberRegistration:
	default:
		return s, ErrIllegalTransition
	}
	if s.CashReceived < s.Total() {
		return s, ErrInsufficientCash
	}
	next := s.clone()
	next.Step = StepOrderComplete
	next.OrderNumber = orderNumber
	next.InFlight = false
	return next, nil
}

// Back returns to the predecessor step without side effects. Form state
// (cash, cart lines) is preserved so a retry does not re-enter everything.
func (s State) Back() (State, error) {
	next := s.clone()
	switch s.Step {
	case StepPaymentEntry:
		next.Step = StepCart
	case StepMemberLookup:
		next.Step = StepPaymentEntry
	case StepNewMemberOffer:
		next.Step = StepMemberLookup
	case StepMemberRegistration:
		next.Step = StepNewMemberOffer
	default:
		return s, ErrIllegalTransition
	}
	return next, nil
}

// Reset starts a fresh checkout ("continue shopping").
func (s State) Reset() State {
	return New()
}

func (s State) clone() State {
	next := s
	next.Lines = make([]Line, len(s.Lines))
	copy(next.Lines, s.Lines)
	if s.MemberID != nil {
		id := *s.MemberID
		next.MemberID = &id
	}
	return next
}
