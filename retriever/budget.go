package retriever

// charsPerToken is the estimation heuristic used when sizing rendered
// context against the token budget.
const charsPerToken = 4

// defaultHeadroomTokens is reserved for prompt framing around the bundle.
const defaultHeadroomTokens = 200

// BudgetCalculator sizes context bundles against a token budget.
type BudgetCalculator struct {
	budgetTokens   int
	headroomTokens int
}

// NewBudgetCalculator creates a budget calculator. Non-positive budget
// falls back to 4000 tokens.
func NewBudgetCalculator(budgetTokens, headroomTokens int) *BudgetCalculator {
	if budgetTokens <= 0 {
		budgetTokens = 4000
	}
	if headroomTokens < 0 {
		headroomTokens = 0
	}
	return &BudgetCalculator{
		budgetTokens:   budgetTokens,
		headroomTokens: headroomTokens,
	}
}

// CharBudget returns the usable bundle size in characters.
func (c *BudgetCalculator) CharBudget() int {
	usable := c.budgetTokens - c.headroomTokens
	if usable < 1 {
		usable = 1
	}
	return usable * charsPerToken
}

// EstimateTokens converts a character count to the token estimate used
// for reporting.
func EstimateTokens(chars int) int {
	return chars / charsPerToken
}
