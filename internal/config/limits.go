package config

const (
	// MaxVideoFileSize is the largest video a lesson may upload (500 MiB).
	// Larger files are rejected before any network call.
	MaxVideoFileSize int64 = 500 << 20

	// MaxNoteFileSize is the largest course note attachment (50 MiB).
	MaxNoteFileSize int64 = 50 << 20

	// MaxChapterTitleLength is the maximum length for chapter titles.
	// Limited to 255 to fit the Course API's VARCHAR(255) columns.
	MaxChapterTitleLength = 255

	// MaxLessonTitleLength is the maximum length for lesson titles.
	MaxLessonTitleLength = 255

	// MaxNoteTitleLength is the maximum length for note titles.
	MaxNoteTitleLength = 255

	// MaxTimestampTitleLength keeps timestamp markers short enough for
	// the player's chapter list.
	MaxTimestampTitleLength = 120

	// MaxDescriptionLength bounds chapter, lesson and note descriptions.
	MaxDescriptionLength = 5000

	// MaxURLLength bounds external and embedded video links.
	MaxURLLength = 2048

	// MaxDurationLength bounds the free-form lesson duration ("12:30", "1h").
	MaxDurationLength = 32
)
