package events

const (
	// KindCoachSpeechStarted identifies start of remote coach audio.
	KindCoachSpeechStarted Kind = "speech.coach_started"
	// KindCoachSpeechStopped identifies end of remote coach audio.
	KindCoachSpeechStopped Kind = "speech.coach_stopped"
	// KindUserSpeechStarted identifies detected user speech activity.
	KindUserSpeechStarted Kind = "speech.user_started"
)

// CoachSpeechStarted marks when coach audio starts playing.
type CoachSpeechStarted struct{ Base }

// NewCoachSpeechStarted creates a coach speech started event.
func NewCoachSpeechStarted() CoachSpeechStarted {
	return CoachSpeechStarted{Base: NewBase(KindCoachSpeechStarted)}
}

// CoachSpeechStopped marks when coach audio stops playing.
type CoachSpeechStopped struct{ Base }

// NewCoachSpeechStopped creates a coach speech stopped event.
func NewCoachSpeechStopped() CoachSpeechStopped {
	return CoachSpeechStopped{Base: NewBase(KindCoachSpeechStopped)}
}

// UserSpeechStarted marks detected user speech activity.
type UserSpeechStarted struct{ Base }

// NewUserSpeechStarted creates a user speech started event.
func NewUserSpeechStarted() UserSpeechStarted {
	return UserSpeechStarted{Base: NewBase(KindUserSpeechStarted)}
}
