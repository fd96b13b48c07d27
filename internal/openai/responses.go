package openai

import (
	"context"
)

// SearchAndExtract asks the model to answer instruction using file search
// over one vector store. The first output text is returned; a response
// without any text yields ExtractionFallback.
func (c *Client) SearchAndExtract(ctx context.Context, vectorStoreID, query, instruction string) (string, error) {
	req := responsesRequest{
		Model: c.model,
		Tools: []responseTool{{
			Type:           "file_search",
			VectorStoreIDs: []string{vectorStoreID},
		}},
		Input: instruction + "\n\nVyhľadaj informácie o: " + query,
	}

	var resp responsesResponse
	if err := c.postJSON(ctx, "/responses", req, &resp); err != nil {
		return "", err
	}
	logUsage("responses", resp.Usage)

	return firstOutputText(resp), nil
}

func firstOutputText(resp responsesResponse) string {
	for _, item := range resp.Output {
		if item.Type != "message" {
			continue
		}
		for _, content := range item.Content {
			if content.Type == "output_text" && content.Text != "" {
				return content.Text
			}
		}
	}
	if resp.OutputText != "" {
		return resp.OutputText
	}
	return ExtractionFallback
}
