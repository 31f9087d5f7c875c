package wizard

const (
	msgAskTitle        = "Enter the expense title:"
	msgAskDate         = "Date?\n• Type \"now\" for the current time\n• Or DD/MM HH:mm"
	msgBadDate         = "Wrong format. Use DD/MM HH:mm or \"now\"."
	msgAskCategory     = "Pick a category (type it exactly):"
	msgAskCategoryFree = "Type a category:"
	msgAskAmount       = "Amount (digits only, e.g. 20000):"
	msgBadAmount       = "Invalid amount, enter it again:"
	msgSaveFailed      = "⚠️ Could not save the expense, send the amount again to retry."
	msgSavedFmt        = "✅ Saved! %s - %s"
)
