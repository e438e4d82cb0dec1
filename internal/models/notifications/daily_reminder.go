package models

// Reminder is a broadcast that the scheduler sends to every registered user
// on a cron schedule.
type Reminder struct {
	Name     string  `json:"name"`
	Schedule string  `json:"schedule"`
	Payload  Payload `json:"payload"`
}

// DailyReminder is the built-in morning broadcast.
func DailyReminder(schedule string) Reminder {
	return Reminder{
		Name:     "daily-reminder",
		Schedule: schedule,
		Payload: Payload{
			Title:    "Daily Reminder",
			Body:     "Don't forget to check your tasks for today!",
			Priority: PriorityNormal,
		},
	}
}
