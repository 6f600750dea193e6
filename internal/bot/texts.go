package bot

const (
	HelpText = "🚗 *בוט מידע על רכבים* 🚗\n\n" +
		"פשוט שלח לי מספר רישוי ישראלי ואני אספק לך מידע על הרכב!\n\n" +
		"*דוגמאות:*\n" +
		"• 12-345-67\n" +
		"• 123-45-678\n" +
		"• 1234567\n\n" +
		"הבוט יזהה אוטומטית מספרי רישוי ויענה עם פרטי הרכב כולל:\n" +
		"• יצרן\n" +
		"• דגם\n" +
		"• שנת ייצור\n" +
		"• צבע\n" +
		"• פרטי מנוע\n" +
		"• סוג דלק"

	FoundHeader = "🚗 *מידע על הרכב* 🚗"

	// NotFoundFormat takes the plate exactly as the user typed it.
	NotFoundFormat = "❌ לא נמצא מידע על רכב עם מספר רישוי: *%s*\n\n" +
		"אנא בדוק את מספר הרישוי ונסה שוב."

	GenericErrorText = "מצטער, נתקלתי בשגיאה בעיבוד הבקשה שלך. אנא נסה שוב."
	LookupErrorText  = "מצטער, נתקלתי בשגיאה בחיפוש מידע על הרכב. אנא נסה שוב."
)
