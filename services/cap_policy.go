package services

// dailyEarnedUnits computes how many completion units one day's raw
// activity is worth for a repeating quest.
//
// The rule takes the larger of floor(count/quantity) and MaxDaily
// (1 when unset), so MaxDaily acts as a floor on earned units rather
// than a ceiling. Product has not confirmed whether that is the
// intended reading; any change to the rule belongs here, not in the
// matching loop.
func dailyEarnedUnits(count int64, quantity int, maxDaily *int) int64 {
	if quantity <= 0 {
		quantity = 1
	}
	limit := int64(1)
	if maxDaily != nil {
		limit = int64(*maxDaily)
	}
	earned := count / int64(quantity)
	if limit > earned {
		earned = limit
	}
	return earned
}
