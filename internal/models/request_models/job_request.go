package request_models

type CreateJobRequest struct {
	FileName string `json:"file_name" binding:"required"`
	FileSize int64  `json:"file_size" binding:"required,gt=0"`
	// AudioPath is where the upload landed (object key or local path).
	AudioPath string `json:"audio_path" binding:"required"`
	Language  string `json:"language" binding:"omitempty,max=8"`
	Mode      string `json:"mode" binding:"required,oneof=ai hybrid human"`
	// DurationHint, in seconds, comes from the client-side decoder when
	// available; the estimate falls back to file size without it.
	DurationHint int64 `json:"duration_hint" binding:"omitempty,gt=0"`
}

type ListJobsRequest struct {
	Page     int    `form:"page,default=1" binding:"omitempty,gt=0"`
	PageSize int    `form:"page_size,default=20" binding:"omitempty,gt=0,lte=100"`
	Status   string `form:"status" binding:"omitempty,oneof=processing pending_transcription pending_review complete failed"`
}
