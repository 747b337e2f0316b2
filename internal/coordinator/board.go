package coordinator

import (
	"github.com/google/uuid"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/pkordes/trip-planner/backend/internal/domain"
)

// ViewOptions selects what a Board shows.
type ViewOptions struct {
	Query       domain.ActivityQuery
	GroupByDate bool
}

// ActivityView is an activity with everything the board derives for it.
type ActivityView struct {
	domain.Activity
	Tally                domain.Tally `json:"tally"`
	UserVoted            bool         `json:"user_voted"`
	UserVote             *bool        `json:"user_vote,omitempty"`
	VotePercentage       int          `json:"vote_percentage"`
	CostPerPerson        *float64     `json:"cost_per_person,omitempty"`
	CostDisplay          string       `json:"cost_display,omitempty"`
	CostPerPersonDisplay string       `json:"cost_per_person_display,omitempty"`
	CanModify            bool         `json:"can_modify"`
	CanFinalize          bool         `json:"can_finalize"`
}

// BoardGroup is a date bucket of activity views.
type BoardGroup struct {
	Key        string         `json:"key"`
	Activities []ActivityView `json:"activities"`
}

// BudgetSummary compares the trip budget with its confirmed activities.
// Amounts are nil when the budget is unset or there are no participants.
type BudgetSummary struct {
	Budget           *float64 `json:"budget,omitempty"`
	PerPerson        *float64 `json:"per_person,omitempty"`
	ConfirmedCost    float64  `json:"confirmed_cost"`
	Remaining        *float64 `json:"remaining,omitempty"`
	BudgetDisplay    string   `json:"budget_display,omitempty"`
	PerPersonDisplay string   `json:"per_person_display,omitempty"`
	ConfirmedDisplay string   `json:"confirmed_display"`
}

// Board is a point-in-time snapshot of a session for presentation.
type Board struct {
	Trip             domain.Trip    `json:"trip"`
	ParticipantCount int            `json:"participant_count"`
	IsOwner          bool           `json:"is_owner"`
	Activities       []ActivityView `json:"activities"`
	Groups           []BoardGroup   `json:"groups,omitempty"`
	Budget           BudgetSummary  `json:"budget"`
}

// View builds a Board from the current cache. The query runs over a copy;
// the cache keeps its fetch order.
func (s *Session) View(opts ViewOptions) Board {
	s.mu.RLock()
	trip := s.trip
	acts := opts.Query.Apply(s.activities)
	all := s.activities
	votes := s.votes
	n := len(s.participants)
	me, _ := domain.FindParticipant(s.participants, s.userID)
	s.mu.RUnlock()

	f := newMoneyFormatter(trip.Currency)

	views := make([]ActivityView, len(acts))
	for i, a := range acts {
		views[i] = s.activityView(a, votes, n, me.IsOwner, f)
	}

	b := Board{
		Trip:             trip,
		ParticipantCount: n,
		IsOwner:          me.IsOwner,
		Activities:       views,
		Budget:           budgetSummary(trip, all, n, f),
	}
	if opts.GroupByDate {
		b.Groups = groupViews(views)
	}
	return b
}

func (s *Session) activityView(a domain.Activity, votes []domain.Vote, participants int, isOwner bool, f moneyFormatter) ActivityView {
	t := domain.CountVotes(votes, a.ID)
	v := ActivityView{
		Activity:       a,
		Tally:          t,
		VotePercentage: t.Percentage(participants),
		CostPerPerson:  domain.CostPerPerson(a.Cost, participants),
		CanModify:      a.CanModify(s.userID, isOwner),
		CanFinalize:    isOwner && a.Status == domain.StatusVoting && t.Total() > 0,
	}
	for _, vote := range votes {
		if vote.ActivityID == a.ID && vote.UserID == s.userID {
			value := vote.Value
			v.UserVoted = true
			v.UserVote = &value
			break
		}
	}
	if a.Cost != nil {
		v.CostDisplay = f.format(*a.Cost)
	}
	if v.CostPerPerson != nil {
		v.CostPerPersonDisplay = f.format(*v.CostPerPerson)
	}
	return v
}

func groupViews(views []ActivityView) []BoardGroup {
	acts := make([]domain.Activity, len(views))
	byID := make(map[uuid.UUID]ActivityView, len(views))
	for i, v := range views {
		acts[i] = v.Activity
		byID[v.ID] = v
	}

	groups := domain.GroupByDate(acts)
	out := make([]BoardGroup, len(groups))
	for i, g := range groups {
		out[i] = BoardGroup{Key: g.Key, Activities: make([]ActivityView, len(g.Activities))}
		for j, a := range g.Activities {
			out[i].Activities[j] = byID[a.ID]
		}
	}
	return out
}

func budgetSummary(trip domain.Trip, acts []domain.Activity, participants int, f moneyFormatter) BudgetSummary {
	var sum BudgetSummary
	for _, a := range acts {
		if a.Status == domain.StatusConfirmed && a.Cost != nil {
			sum.ConfirmedCost += *a.Cost
		}
	}
	sum.ConfirmedDisplay = f.format(sum.ConfirmedCost)

	if trip.Budget == nil {
		return sum
	}
	budget := *trip.Budget
	remaining := budget - sum.ConfirmedCost
	sum.Budget = &budget
	sum.Remaining = &remaining
	sum.BudgetDisplay = f.format(budget)
	if pp := domain.CostPerPerson(&budget, participants); pp != nil {
		sum.PerPerson = pp
		sum.PerPersonDisplay = f.format(*pp)
	}
	return sum
}

// moneyFormatter renders amounts in a trip's currency the way a US English
// locale does: symbol first, grouped digits, the currency's standard scale.
// Unknown currency codes fall back to the default currency.
type moneyFormatter struct {
	symbol  string
	scale   int
	printer *message.Printer
}

func newMoneyFormatter(code string) moneyFormatter {
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.USD
	}
	p := message.NewPrinter(language.AmericanEnglish)
	scale, _ := currency.Standard.Rounding(unit)
	return moneyFormatter{
		symbol:  p.Sprint(currency.Symbol(unit)),
		scale:   scale,
		printer: p,
	}
}

func (f moneyFormatter) format(amount float64) string {
	return f.symbol + f.printer.Sprint(number.Decimal(amount, number.Scale(f.scale)))
}

// FormatMoney renders amount in the given ISO 4217 currency.
func FormatMoney(code string, amount float64) string {
	return newMoneyFormatter(code).format(amount)
}
