package explorer

// User-visible status and error messages.
const (
	MsgInvalidUsername     = "Please enter a valid GitHub username."
	MsgInvalidOrganization = "Please enter a valid GitHub organization name."
	MsgReposAPIError       = "Failed to fetch repositories due to an API error."
	MsgFetchFailed         = "An unexpected error occurred while fetching data."
	MsgContentsAPIError    = "Failed to fetch repository contents."
	MsgContentsFailed      = "An unexpected error occurred while fetching contents."
	MsgFileAPIError        = "Failed to fetch file content."
	MsgFileFailed          = "An unexpected error occurred while viewing file."
	MsgUnreadableFile      = "Could not read file content."

	MsgAnalyzingRepository = "Analyzing repository..."
	MsgSummaryFailed       = "Could not generate detailed summary. The repository description is shown here."
	MsgAnalyzingCode       = "Analyzing code content..."
	MsgExplainFailed       = "Could not generate code analysis."
	MsgConverting          = "Converting code..."
	MsgConvertFailed       = "Error during code conversion. Please check the logs for details."
)
