package types

// UploadResponse is returned by POST /upload
type UploadResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
}

// ProcessResponse is returned by POST /process
type ProcessResponse struct {
	Success      bool      `json:"success"`
	Filename     string    `json:"filename"`
	SplitFiles   []string  `json:"split_files"`
	OutputFolder string    `json:"output_folder"`
	FolderName   string    `json:"folder_name"`
	Mode         SplitMode `json:"mode"`
}

// ProgressResponse is returned by GET /progress/:filename
type ProgressResponse struct {
	Progress float64   `json:"progress"`
	Status   JobStatus `json:"status"`
}

// ErrorResponse is the failure shape of every endpoint
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
