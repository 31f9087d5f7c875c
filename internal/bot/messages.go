package bot

const (
	msgStart = "Hi! Use /add to record an expense, /summary for a summary and /categories for the category list."
	msgHelp  = "Commands:\n" +
		"/add - record an expense step by step\n" +
		"/categories - list the categories\n" +
		"/summary - totals for the current month\n" +
		"/summary DD/MM-DD/MM - totals for a date range\n" +
		"/summary [DD/MM-DD/MM] --detail - include every entry\n" +
		"/cancel - abandon the expense being entered\n" +
		"/help - this message"
	msgNoCategories  = "No categories."
	msgBadRange      = "Wrong format. Use /summary DD/MM-DD/MM [--detail], e.g. /summary 01/05-10/05."
	msgReversedRange = "The start of the range is after its end."
	msgActionFailed  = "⚠️ Action failed, please try again later."
	msgCancelled     = "Expense entry cancelled."
	msgNothingCancel = "Nothing to cancel."
	msgUnknown       = "Unknown command. See /help."
	msgNoExpenses    = "No expenses recorded."
	msgSlowDown      = "⏳ Too many messages, please slow down."
)
