package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/agentdesk/backend/internal/service/classifier"
	"github.com/zhouzirui/agentdesk/backend/internal/service/worker"
)

// 路由器识别的类别。分类器的原始输出不做枚举解析，只做子串匹配。
const (
	CategoryWeather         = "WEATHER"
	CategoryDocQA           = "DOC_QA"
	CategoryMeetingSchedule = "MEETING_SCHEDULE"
	CategoryDBQuery         = "DB_QUERY"
)

const routerPromptTemplate = `Analyze the user query: "%s"
Classify it into one of these categories:
1. WEATHER: Queries about temperature, rain, forecast, weather
2. DOC_QA: Queries about policies, resume, document content, information
3. MEETING_SCHEDULE: Requests to schedule meetings based on conditions
4. DB_QUERY: Questions about existing meetings, events, database

Return ONLY the category name (WEATHER, DOC_QA, MEETING_SCHEDULE, or DB_QUERY).`

// RouterPrompt 构造分类提示词。
func RouterPrompt(query string) string {
	return fmt.Sprintf(routerPromptTemplate, query)
}

// Router 调用分类器为查询打上类别标签，失败时回退到 DB_QUERY。
type Router struct {
	classifier classifier.Classifier
}

// NewRouter 创建路由器。
func NewRouter(cls classifier.Classifier) *Router {
	return &Router{classifier: cls}
}

// Classify 返回去除首尾空白后的分类结果，永不返回空串也不返回错误。
func (r *Router) Classify(ctx context.Context, query string) string {
	if r == nil || r.classifier == nil {
		log.Warn().Str("component", "router").Msg("classifier unavailable, use fallback category")
		return CategoryDBQuery
	}

	answer, err := r.classifier.Complete(ctx, RouterPrompt(query))
	if err != nil {
		log.Warn().Str("component", "router").Err(err).Msg("classification failed, use fallback category")
		return CategoryDBQuery
	}

	category := strings.TrimSpace(answer)
	if category == "" {
		log.Warn().Str("component", "router").Msg("empty classification, use fallback category")
		return CategoryDBQuery
	}
	return category
}

// route 是一条有序的子串规则，先匹配者胜出。
type route struct {
	needles []string
	worker  string
}

var routes = []route{
	{needles: []string{"WEATHER"}, worker: worker.NameWeather},
	{needles: []string{"DOC_QA", "DOC"}, worker: worker.NameDocQA},
	{needles: []string{"MEETING_SCHEDULE", "MEETING"}, worker: worker.NameScheduler},
}

// SelectWorker 将任意类别文本映射到唯一的 worker 名称。
// 规则按顺序匹配（大小写不敏感），都不匹配时落到数据库 worker。
func SelectWorker(category string) string {
	normalized := strings.ToUpper(strings.TrimSpace(category))
	for _, r := range routes {
		for _, needle := range r.needles {
			if strings.Contains(normalized, needle) {
				return r.worker
			}
		}
	}
	return worker.NameDatabase
}
