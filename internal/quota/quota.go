package quota

// Unlimited marks a plan with no monthly cap.
const Unlimited = -1

// PlanLimits maps plan tiers to their monthly generation allowance.
var PlanLimits = map[string]int{
	"free":    10,
	"starter": 100,
	"growth":  400,
	"scale":   Unlimited,
}

// Result is the outcome of a quota check.
type Result struct {
	Allowed bool
	Current int
	Limit   int
}

// Unlimited reports whether the plan has no cap.
func (r Result) Unlimited() bool {
	return r.Limit == Unlimited
}

// Check gates one generation unit against the plan's monthly limit. Plans
// with an unlimited allowance short-circuit without invoking the counter, so
// the usage scan never runs for them. Unknown plans fall back to the free
// tier. Read-only: the caller owns the fail-open/fail-closed decision when
// the counter errors.
func Check(plan string, countThisMonth func() (int, error)) (Result, error) {
	limit, ok := PlanLimits[plan]
	if !ok {
		limit = PlanLimits["free"]
	}

	if limit == Unlimited {
		return Result{Allowed: true, Current: 0, Limit: Unlimited}, nil
	}

	current, err := countThisMonth()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Allowed: current < limit,
		Current: current,
		Limit:   limit,
	}, nil
}
