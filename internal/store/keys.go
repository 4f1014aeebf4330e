package store

// Cache keys. The token key lives in whichever scope the remember flag
// selects; everything else is always durable.
const (
	KeyToken      = "access_token"
	KeyRemember   = "remember"
	KeyActiveList = "active_list"
	KeyActiveTab  = "active_tab"
	KeyLists      = "cache_lists"
	KeyListItems  = "cache_list_items"
	KeyLabels     = "cache_labels"
	KeyUnits      = "cache_units"
	KeyMealPlan   = "cache_meal_plan"
)
