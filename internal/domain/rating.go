package domain

// Rating holds the averaged indexer votes for a job.
type Rating struct {
	JobID               string
	AvgVideo            int
	AvgAudio            int
	AvgSpamCnt          int
	AvgSpamConfirm      bool
	AvgEncryptedCnt     int
	AvgEncryptedConfirm bool
	AvgVoteUp           int
	AvgVoteDown         int
}
