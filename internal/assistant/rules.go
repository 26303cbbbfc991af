package assistant

import (
	"fmt"
	"strings"

	"finassist/internal/aggregate"
	"finassist/internal/core"
)

// Rule names, also used as metric labels.
const (
	RuleGreeting        = "greeting"
	RuleTotalExpenses   = "total_expenses"
	RuleSavings         = "savings"
	RuleCategories      = "categories"
	RuleHighestExpense  = "highest_expense"
	RuleSaveMore        = "save_more"
	RuleSpendingPattern = "spending_pattern"
	RuleBudgetingTips   = "budgeting_tips"
	RuleReduceDaily     = "reduce_daily_expenses"
	RuleInvestment      = "investment"
	RuleEmergencyFund   = "emergency_fund"
	RuleFallback        = "fallback"
)

const (
	WelcomeText  = "Hello! I'm your financial assistant. Ask me about your expenses!"
	FallbackText = "I'm not sure about that. Try asking about your total expenses, savings, categories, or type 'hi' for a list of questions!"

	greetingIntro = "Hello! Here are some questions you can ask me:"
)

// lowSavings is the threshold (in currency units) under which savings are
// called out as low.
var lowSavings = core.Money{Cents: 10000 * 100}

// MenuQuestions are offered after a greeting. Each one resolves to a rule
// further down the list.
var MenuQuestions = []string{
	"What are my total expenses?",
	"What are my spending categories?",
	"How can I save more?",
	"What's my spending pattern?",
	"Any budgeting tips?",
	"How to reduce daily expenses?",
	"Investment advice?",
	"Emergency fund tips?",
}

// Facts is everything a responder may quote.
type Facts struct {
	Expenses      []core.Expense
	Summary       aggregate.Summary
	MonthlyIncome core.Money
	Currency      string
}

func (f Facts) money(m core.Money) string {
	return m.Format(f.Currency)
}

// Reply is a responder's answer. FollowUps are queries the user can send
// back with one click.
type Reply struct {
	Rule      string   `json:"rule"`
	Text      string   `json:"text"`
	FollowUps []string `json:"followUps,omitempty"`
}

// Rule pairs a predicate with the responder used when it matches.
type Rule struct {
	Name    string
	Match   func(Query) bool
	Respond func(Query, Facts) Reply
}

func textReply(name, text string) func(Query, Facts) Reply {
	return func(Query, Facts) Reply {
		return Reply{Rule: name, Text: text}
	}
}

// DefaultRules returns the rule list in precedence order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: RuleGreeting, Match: AnyWord("hi", "hello", "hey"), Respond: greeting},
		{Name: RuleTotalExpenses, Match: ContainsAny("total expenses"), Respond: totalExpenses},
		{Name: RuleSavings, Match: ContainsAny("saving"), Respond: savings},
		{Name: RuleCategories, Match: ContainsAny("categories"), Respond: categories},
		{Name: RuleHighestExpense, Match: ContainsAny("highest expense"), Respond: highestExpense},
		{Name: RuleSaveMore, Match: ContainsAny("save more"), Respond: textReply(RuleSaveMore, saveMoreText)},
		{Name: RuleSpendingPattern, Match: ContainsAny("spending pattern"), Respond: spendingPattern},
		{Name: RuleBudgetingTips, Match: ContainsAny("budgeting tips"), Respond: textReply(RuleBudgetingTips, budgetingTipsText)},
		{Name: RuleReduceDaily, Match: ContainsAny("reduce daily expenses"), Respond: textReply(RuleReduceDaily, reduceDailyText)},
		{Name: RuleInvestment, Match: ContainsAny("investment"), Respond: textReply(RuleInvestment, investmentText)},
		{Name: RuleEmergencyFund, Match: ContainsAny("emergency fund"), Respond: textReply(RuleEmergencyFund, emergencyFundText)},
	}
}

func greeting(Query, Facts) Reply {
	text := greetingIntro + "\n" + strings.Join(MenuQuestions, "\n")
	return Reply{
		Rule:      RuleGreeting,
		Text:      text,
		FollowUps: append([]string(nil), MenuQuestions...),
	}
}

func totalExpenses(_ Query, f Facts) Reply {
	return Reply{
		Rule: RuleTotalExpenses,
		Text: fmt.Sprintf("Your total expenses are %s.", f.money(f.Summary.Total)),
	}
}

func savings(_ Query, f Facts) Reply {
	left := aggregate.Savings(f.MonthlyIncome, f.Expenses)
	verdict := "Great job on your savings!"
	if left.Cents < lowSavings.Cents {
		verdict = "That's quite low. Would you like some saving tips?"
	}
	return Reply{
		Rule: RuleSavings,
		Text: fmt.Sprintf("Based on a monthly income of %s%s, your savings are %s. %s",
			f.Currency, f.MonthlyIncome.Compact(), f.money(left), verdict),
	}
}

func categories(_ Query, f Facts) Reply {
	cats := aggregate.Categories(f.Expenses)
	if len(cats) == 0 {
		return Reply{Rule: RuleCategories, Text: "You haven't recorded any expenses yet, so there are no categories to show."}
	}
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.String()
	}
	return Reply{
		Rule: RuleCategories,
		Text: fmt.Sprintf("You have expenses in these categories: %s.", strings.Join(names, ", ")),
	}
}

func highestExpense(_ Query, f Facts) Reply {
	if f.Summary.Highest == nil {
		return Reply{Rule: RuleHighestExpense, Text: "You haven't recorded any expenses yet, so there is no highest expense."}
	}
	h := f.Summary.Highest
	return Reply{
		Rule: RuleHighestExpense,
		Text: fmt.Sprintf("Your highest expense was %s for %s in the %s category.",
			f.money(h.Amount), h.Description, h.Category),
	}
}

func spendingPattern(_ Query, f Facts) Reply {
	totals := aggregate.SortByAmount(f.Summary.ByCategory)
	if len(totals) == 0 {
		return Reply{Rule: RuleSpendingPattern, Text: "You haven't recorded any expenses yet, so there is no spending pattern to show."}
	}
	var b strings.Builder
	b.WriteString("Here's your spending pattern:\n")
	for _, c := range totals {
		fmt.Fprintf(&b, "%s: %s\n", c.Category, f.money(c.Amount))
	}
	fmt.Fprintf(&b, "\nYour highest spending category is %s.", totals[0].Category)
	return Reply{Rule: RuleSpendingPattern, Text: b.String()}
}

const saveMoreText = `Here are some tips to save more:
1. Follow the 50/30/20 rule
2. Cut down on non-essential expenses
3. Use public transport when possible
4. Cook meals at home
5. Cancel unused subscriptions
6. Look for better utility plans
Would you like more specific advice about any of these?`

const budgetingTipsText = `Here are some effective budgeting tips:
1. Track every expense
2. Set realistic spending limits
3. Use cash for discretionary spending
4. Plan meals in advance
5. Wait 24 hours before large purchases
6. Review your budget weekly`

const reduceDailyText = `Tips to reduce daily expenses:
1. Make a shopping list and stick to it
2. Use public transportation or carpool
3. Bring lunch to work
4. Use reusable water bottles
5. Cancel unused subscriptions
6. Compare prices before purchasing
7. Use cashback and rewards programs`

const investmentText = `Consider these investment options:
1. Fixed Deposits
2. Mutual Funds
3. PPF (Public Provident Fund)
4. National Pension System
5. Stock Market (with research)
Always consult a financial advisor before making investment decisions.`

const emergencyFundText = `Emergency Fund Tips:
1. Aim for 3-6 months of expenses
2. Keep it in a separate savings account
3. Start small but be consistent
4. Use windfall money wisely
5. Replenish after using`
