package skills

import (
	"context"
	"fmt"

	"github.com/hsinyulin/finchat/internal/genai"
	"github.com/hsinyulin/finchat/internal/jobs"
)

const jobSystemPrompt = "你是一位求職顧問，" +
	"你會根據職缺清單整理重點並給出簡短建議。請使用台灣地區的繁體中文回答，並在回答中保留職缺清單。"

// JobSearch answers 104 job-bank queries for one employment term.
type JobSearch struct {
	genAI  genai.ClientInterface
	client *jobs.Client
	term   string
}

// NewJobSearch wires the full-time job search skill.
func NewJobSearch(genAI genai.ClientInterface, client *jobs.Client) *JobSearch {
	return &JobSearch{genAI: genAI, client: client, term: jobs.TermFullTime}
}

// NewParttimeJob wires the part-time job search skill.
func NewParttimeJob(genAI genai.ClientInterface, client *jobs.Client) *JobSearch {
	return &JobSearch{genAI: genAI, client: client, term: jobs.TermPartTime}
}

// Handle searches listings for the keyword and asks the backend to summarize.
func (j *JobSearch) Handle(ctx context.Context, keyword string) (string, error) {
	listings, err := j.client.Search(ctx, keyword, j.term)
	if err != nil {
		return "", fmt.Errorf("search jobs for %q: %w", keyword, err)
	}

	user := fmt.Sprintf("關鍵字「%s」的職缺如下:\n%s\n請整理重點並給出求職建議。", keyword, jobs.Format(listings))
	return j.genAI.GeneratePrompt(ctx, jobSystemPrompt, user)
}
