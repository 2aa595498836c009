package apiserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"indiewatch/internal/engine"
	"indiewatch/internal/engine/media"
)

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, engine.InvalidRequestf("%s must be an integer, got %q", name, raw)
	}
	return v, nil
}

func boolQuery(c *gin.Context, name string, def bool) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, engine.InvalidRequestf("%s must be a boolean, got %q", name, raw)
	}
	return v, nil
}

// handleMedia ranks registry sources against a free-text topic.
func (s *Server) handleMedia(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		writeError(c, engine.InvalidRequestf("query must be provided"))
		return
	}
	limit, err := intQuery(c, "limit", 5)
	if err != nil {
		writeError(c, err)
		return
	}
	offset, err := intQuery(c, "offset", 0)
	if err != nil {
		writeError(c, err)
		return
	}
	if offset < 0 {
		offset = 0
	}

	sources, err := s.registry.TopicSources(c.Request.Context(), query, limit+offset)
	if err != nil {
		writeError(c, err)
		return
	}
	if offset >= len(sources) {
		sources = nil
	} else {
		sources = sources[offset:]
	}
	c.JSON(http.StatusOK, sources)
}

// handleSources looks registry sources up by partial name.
func (s *Server) handleSources(c *gin.Context) {
	limit, err := intQuery(c, "limit", 10)
	if err != nil {
		writeError(c, err)
		return
	}
	offset, err := intQuery(c, "offset", 0)
	if err != nil {
		writeError(c, err)
		return
	}
	credible, err := boolQuery(c, "credible_only", false)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.registry.FilterByName(c.Query("name"), limit, offset, credible))
}

func (s *Server) handleYouTube(c *gin.Context) {
	req := media.SearchRequest{
		Identifiers: media.SplitList(c.Query("channels")),
		Query:       c.Query("query"),
		EndDate:     c.Query("end_date"),
	}
	var err error
	if req.PeriodDays, err = intQuery(c, "period_days", 3); err != nil {
		writeError(c, err)
		return
	}
	if req.MaxSources, err = intQuery(c, "max_channels", 5); err != nil {
		writeError(c, err)
		return
	}
	if req.MaxPerIdentifier, err = intQuery(c, "max_videos_per_channel", 3); err != nil {
		writeError(c, err)
		return
	}
	if req.WithDescriptions, err = boolQuery(c, "get_descriptions", false); err != nil {
		writeError(c, err)
		return
	}
	if req.WithTranscripts, err = boolQuery(c, "get_transcripts", true); err != nil {
		writeError(c, err)
		return
	}
	if req.CharBudget, err = intQuery(c, "char_cap", 0); err != nil {
		writeError(c, err)
		return
	}

	videos, err := s.pipelines.VideoSearch(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, videos)
}

func (s *Server) handleX(c *gin.Context) {
	req := media.SearchRequest{
		Identifiers: media.SplitList(c.Query("users")),
		Query:       c.Query("query"),
		EndDate:     c.Query("end_date"),
	}
	var err error
	if req.PeriodDays, err = intQuery(c, "period_days", 3); err != nil {
		writeError(c, err)
		return
	}
	if req.MaxSources, err = intQuery(c, "max_users", 20); err != nil {
		writeError(c, err)
		return
	}
	if req.MaxPerIdentifier, err = intQuery(c, "max_tweets_per_user", 20); err != nil {
		writeError(c, err)
		return
	}

	posts, err := s.pipelines.PostSearch(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (s *Server) handleSubstack(c *gin.Context) {
	req := media.SearchRequest{
		Identifiers: media.SplitList(c.Query("publications")),
		Query:       c.Query("query"),
	}
	var err error
	if req.MaxSources, err = intQuery(c, "max_publications", 5); err != nil {
		writeError(c, err)
		return
	}
	if req.MaxPerIdentifier, err = intQuery(c, "max_posts_per_publication", 10); err != nil {
		writeError(c, err)
		return
	}
	if req.WithContent, err = boolQuery(c, "get_content", true); err != nil {
		writeError(c, err)
		return
	}
	if req.CharBudget, err = intQuery(c, "char_cap", 0); err != nil {
		writeError(c, err)
		return
	}

	articles, err := s.pipelines.ArticleSearch(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, articles)
}

func (s *Server) handleNews(c *gin.Context) {
	req := media.NewsRequest{
		Channels: media.SplitList(c.Query("channels")),
		Users:    media.SplitList(c.Query("users")),
		Query:    c.Query("query"),
		EndDate:  c.Query("end_date"),
	}
	var err error
	if req.PeriodDays, err = intQuery(c, "period_days", 3); err != nil {
		writeError(c, err)
		return
	}
	if req.MaxChannels, err = intQuery(c, "max_channels", 5); err != nil {
		writeError(c, err)
		return
	}
	if req.MaxUsers, err = intQuery(c, "max_users", 20); err != nil {
		writeError(c, err)
		return
	}
	if req.MaxVideosPerChannel, err = intQuery(c, "max_videos_per_channel", 2); err != nil {
		writeError(c, err)
		return
	}
	if req.MaxPostsPerUser, err = intQuery(c, "max_tweets_per_user", 20); err != nil {
		writeError(c, err)
		return
	}
	if req.CharBudget, err = intQuery(c, "char_cap", 0); err != nil {
		writeError(c, err)
		return
	}

	result, err := s.pipelines.NewsSearch(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleTranscripts(c *gin.Context) {
	ids := media.SplitList(c.Query("ids"))
	transcripts, err := s.pipelines.Transcripts(c.Request.Context(), ids)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, transcripts)
}

// handleCookies ingests a credential-refresh payload from the external
// cookie-refresh job and persists the blob for the microblog client.
func (s *Server) handleCookies(c *gin.Context) {
	var payload struct {
		Success bool   `json:"success"`
		Cookies string `json:"cookies"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, engine.InvalidRequestf("invalid JSON body: %v", err))
		return
	}
	if !payload.Success || payload.Cookies == "" {
		writeError(c, engine.InvalidRequestf("payload must carry success=true and a non-empty cookies blob"))
		return
	}
	if err := s.creds.Save(payload.Cookies); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// handleRefresh reloads the source registry wholesale.
func (s *Server) handleRefresh(c *gin.Context) {
	if err := s.registry.Refresh(); err != nil {
		writeError(c, err)
		return
	}
	engine.IncrRegistryRefresh()
	c.JSON(http.StatusOK, gin.H{"status": "refreshed", "sources": s.registry.Len()})
}
