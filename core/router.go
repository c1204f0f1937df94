package core

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter constructs the Gin engine with routes wired. Repositories come
// in as interfaces so handler behaviour is testable without a database.
func NewRouter(cfg Config, issuer *TokenIssuer, users UserRepository, profiles ProfileRepository, posts PostRepository, github GithubClient) *gin.Engine {
	r := gin.Default()

	r.Use(OriginMiddleware(cfg))
	requireAuth := AuthMiddleware(issuer)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.ClientDir != "" {
		// Serve the prebuilt SPA; unknown paths fall through to index.html
		// so client-side routing works on refresh.
		index := filepath.Join(cfg.ClientDir, "index.html")
		r.Static("/static", filepath.Join(cfg.ClientDir, "static"))
		r.GET("/", func(c *gin.Context) { c.File(index) })
		r.NoRoute(func(c *gin.Context) {
			if strings.HasPrefix(c.Request.URL.Path, "/api/") {
				c.Status(http.StatusNotFound)
				return
			}
			c.File(index)
		})
	} else {
		r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "API Running") })
	}

	api := r.Group("/api")

	// ---- users ----

	// Register a new user and return a signed token.
	api.POST("/users", func(c *gin.Context) {
		var req struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = c.ShouldBindJSON(&req)

		var v fieldErrors
		v.require(req.Name, "Name is required")
		v.email(req.Email, "Please include a valid email")
		v.minLen(req.Password, 6, "Please enter a password with 6 or more characters")
		if !v.ok() {
			respondValidation(c, v.msgs)
			return
		}

		hash, err := HashPassword(req.Password)
		if err != nil {
			respondServerError(c, err)
			return
		}

		u := &User{
			ID:           NewDocID(),
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: hash,
			Avatar:       GravatarURL(req.Email),
		}
		ctx := c.Request.Context()
		if err := users.Create(ctx, u); err != nil {
			if errors.Is(err, ErrDuplicateEmail) {
				respondValidation(c, []string{"User already exists"})
				return
			}
			respondServerError(c, err)
			return
		}

		token, err := issuer.Issue(u.ID)
		if err != nil {
			respondServerError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	})

	// ---- auth ----

	// Current authenticated user, password hash excluded.
	api.GET("/auth", requireAuth, func(c *gin.Context) {
		u, err := users.FindByID(c.Request.Context(), AuthUserID(c))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				respondMsg(c, http.StatusNotFound, "User not found")
				return
			}
			respondServerError(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	})

	// Login. Unknown email and wrong password produce identical bodies so
	// the response never discloses which check failed.
	api.POST("/auth", func(c *gin.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = c.ShouldBindJSON(&req)

		var v fieldErrors
		v.email(req.Email, "Please include a valid email")
		v.require(req.Password, "Password is required")
		if !v.ok() {
			respondValidation(c, v.msgs)
			return
		}

		u, err := users.FindByEmail(c.Request.Context(), req.Email)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				respondValidation(c, []string{"Invalid Credentials"})
				return
			}
			respondServerError(c, err)
			return
		}
		if !CheckPassword(req.Password, u.PasswordHash) {
			respondValidation(c, []string{"Invalid Credentials"})
			return
		}

		token, err := issuer.Issue(u.ID)
		if err != nil {
			respondServerError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	})

	// ---- profile ----

	profileReq := func(c *gin.Context) (ProfileFields, bool) {
		var req struct {
			Company        string `json:"company"`
			Website        string `json:"website"`
			Location       string `json:"location"`
			Bio            string `json:"bio"`
			Status         string `json:"status"`
			GithubUsername string `json:"githubusername"`
			Skills         string `json:"skills"`
			Youtube        string `json:"youtube"`
			Facebook       string `json:"facebook"`
			Twitter        string `json:"twitter"`
			Instagram      string `json:"instagram"`
			Linkedin       string `json:"linkedin"`
		}
		_ = c.ShouldBindJSON(&req)

		var v fieldErrors
		v.require(req.Status, "Status is required")
		v.require(req.Skills, "Skills are required")
		if !v.ok() {
			respondValidation(c, v.msgs)
			return ProfileFields{}, false
		}

		skills := []string{}
		for _, s := range strings.Split(req.Skills, ",") {
			skills = append(skills, strings.TrimSpace(s))
		}
		return ProfileFields{
			Company:        req.Company,
			Website:        req.Website,
			Location:       req.Location,
			Status:         req.Status,
			Skills:         skills,
			Bio:            req.Bio,
			GithubUsername: req.GithubUsername,
			Social: SocialLinks{
				Youtube:   req.Youtube,
				Facebook:  req.Facebook,
				Twitter:   req.Twitter,
				Instagram: req.Instagram,
				Linkedin:  req.Linkedin,
			},
		}, true
	}

	api.GET("/profile/me", requireAuth, func(c *gin.Context) {
		p, err := profiles.FindByUser(c.Request.Context(), AuthUserID(c))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				respondMsg(c, http.StatusBadRequest, "The is no profile for this user")
				return
			}
			respondServerError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	})

	api.POST("/profile", requireAuth, func(c *gin.Context) {
		fields, ok := profileReq(c)
		if !ok {
			return
		}
		p, err := profiles.Create(c.Request.Context(), AuthUserID(c), fields)
		if err != nil {
			respondServerError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	})

	api.PUT("/profile", requireAuth, func(c *gin.Context) {
		fields, ok := profileReq(c)
		if !ok {
			return
		}
		p, err := profiles.Update(c.Request.Context(), AuthUserID(c), fields)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				respondMsg(c, http.StatusBadRequest, "The is no profile for this user")
				return
			}
			respondServerError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	})

	api.GET("/profile", func(c *gin.Context) {
		list, err := profiles.List(c.Request.Context())
		if err != nil {
			respondServerError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	api.GET("/profile/user/:user_id", func(c *gin.Context) {
		p, err := profiles.FindByUser(c.Request.Context(), c.Param("user_id"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				respondMsg(c, http.StatusBadRequest, "Profile not found")
				return
			}
			respondServerError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	})

	// Delete the profile, then the account itself.
	api.DELETE("/profile", requireAuth, func(c *gin.Context) {
		ctx := c.Request.Context()
		userID := AuthUserID(c)
		if err := profiles.DeleteByUser(ctx, userID); err != nil {
			respondServerError(c, err)
			return
		}
		if err := users.DeleteByID(ctx, userID); err != nil {
			respondServerError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "User Deleted"})
	})

	// ---- profile experience ----

	// The experience and education routes carry no separate ownership check:
	// the repository keys every mutation by the acting user's own profile row.

	experienceReq := func(c *gin.Context) (Experience, bool) {
		var req struct {
			Title       string `json:"title"`
			Company     string `json:"company"`
			Location    string `json:"location"`
			From        string `json:"from"`
			To          string `json:"to"`
			Current     bool   `json:"current"`
			Description string `json:"description"`
		}
		_ = c.ShouldBindJSON(&req)

		var v fieldErrors
		v.require(req.Title, "Job title is required")
		v.require(req.Company, "Company Name is required")
		v.require(req.From, "Starting date is required")
		if !v.ok() {
			respondValidation(c, v.msgs)
			return Experience{}, false
		}
		return Experience{
			ID:          NewDocID(),
			Title:       req.Title,
			Company:     req.Company,
			Location:    req.Location,
			From:        req.From,
			To:          req.To,
			Current:     req.Current,
			Description: req.Description,
		}, true
	}

	respondProfileMutation := func(c *gin.Context, p *Profile, err error) {
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				respondMsg(c, http.StatusBadRequest, "The is no profile for this user")
				return
			}
			respondServerError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}

	api.POST("/profile/experience", requireAuth, func(c *gin.Context) {
		exp, ok := experienceReq(c)
		if !ok {
			return
		}
		p, err := profiles.AddExperience(c.Request.Context(), AuthUserID(c), exp)
		respondProfileMutation(c, p, err)
	})

	api.PUT("/profile/experience/:exp_id", requireAuth, func(c *gin.Context) {
		exp, ok := experienceReq(c)
		if !ok {
			return
		}
		p, err := profiles.UpdateExperience(c.Request.Context(), AuthUserID(c), c.Param("exp_id"), exp)
		respondProfileMutation(c, p, err)
	})

	api.DELETE("/profile/experience/:exp_id", requireAuth, func(c *gin.Context) {
		p, err := profiles.RemoveExperience(c.Request.Context(), AuthUserID(c), c.Param("exp_id"))
		respondProfileMutation(c, p, err)
	})

	// ---- profile education ----

	educationReq := func(c *gin.Context) (Education, bool) {
		var req struct {
			School       string `json:"school"`
			Degree       string `json:"degree"`
			FieldOfStudy string `json:"fieldofstudy"`
			From         string `json:"from"`
			To           string `json:"to"`
			Current      bool   `json:"current"`
			Description  string `json:"description"`
		}
		_ = c.ShouldBindJSON(&req)

		var v fieldErrors
		v.require(req.School, "School name is required")
		v.require(req.Degree, "Major is required")
		v.require(req.FieldOfStudy, "Field of study is required")
		v.require(req.From, "Starting date is required")
		if !v.ok() {
			respondValidation(c, v.msgs)
			return Education{}, false
		}
		return Education{
			ID:           NewDocID(),
			School:       req.School,
			Degree:       req.Degree,
			FieldOfStudy: req.FieldOfStudy,
			From:         req.From,
			To:           req.To,
			Current:      req.Current,
			Description:  req.Description,
		}, true
	}

	api.POST("/profile/education", requireAuth, func(c *gin.Context) {
		edu, ok := educationReq(c)
		if !ok {
			return
		}
		p, err := profiles.AddEducation(c.Request.Context(), AuthUserID(c), edu)
		respondProfileMutation(c, p, err)
	})

	api.PUT("/profile/education/:edu_id", requireAuth, func(c *gin.Context) {
		edu, ok := educationReq(c)
		if !ok {
			return
		}
		p, err := profiles.UpdateEducation(c.Request.Context(), AuthUserID(c), c.Param("edu_id"), edu)
		respondProfileMutation(c, p, err)
	})

	api.DELETE("/profile/education/:edu_id", requireAuth, func(c *gin.Context) {
		p, err := profiles.RemoveEducation(c.Request.Context(), AuthUserID(c), c.Param("edu_id"))
		respondProfileMutation(c, p, err)
	})

	// ---- github proxy ----

	api.GET("/profile/github/:username", func(c *gin.Context) {
		body, err := github.Repos(c.Request.Context(), c.Param("username"))
		if err != nil {
			if errors.Is(err, ErrNoGithubProfile) {
				respondMsg(c, http.StatusNotFound, "No Github profile found")
				return
			}
			respondServerError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
	})

	// ---- posts ----

	api.POST("/posts", requireAuth, func(c *gin.Context) {
		var req struct {
			Text string `json:"text"`
		}
		_ = c.ShouldBindJSON(&req)

		var v fieldErrors
		v.require(req.Text, "Post text is required")
		if !v.ok() {
			respondValidation(c, v.msgs)
			return
		}

		ctx := c.Request.Context()
		u, err := users.FindByID(ctx, AuthUserID(c))
		if err != nil {
			respondServerError(c, err)
			return
		}

		// Author name/avatar are snapshotted here and never updated.
		post := &Post{
			ID:     NewDocID(),
			User:   u.ID,
			Text:   req.Text,
			Name:   u.Name,
			Avatar: u.Avatar,
		}
		if err := posts.Create(ctx, post); err != nil {
			respondServerError(c, err)
			return
		}
		c.JSON(http.StatusOK, post)
	})

	api.GET("/posts", requireAuth, func(c *gin.Context) {
		list, err := posts.List(c.Request.Context())
		if err != nil {
			respondServerError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	api.GET("/posts/:id", requireAuth, func(c *gin.Context) {
		post, err := posts.FindByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				respondMsg(c, http.StatusNotFound, "Post not found")
				return
			}
			respondServerError(c, err)
			return
		}
		c.JSON(http.StatusOK, post)
	})

	api.DELETE("/posts/:id", requireAuth, func(c *gin.Context) {
		ctx := c.Request.Context()
		post, err := posts.FindByID(ctx, c.Param("id"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				respondMsg(c, http.StatusNotFound, "Post not found")
				return
			}
			respondServerError(c, err)
			return
		}
		if post.User != AuthUserID(c) {
			respondMsg(c, http.StatusUnauthorized, "Not Authorized")
			return
		}
		if err := posts.Delete(ctx, post.ID); err != nil {
			respondServerError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "Post Removed"})
	})

	// ---- likes ----

	api.PUT("/posts/like/:id", requireAuth, func(c *gin.Context) {
		likes, err := posts.AddLike(c.Request.Context(), c.Param("id"), AuthUserID(c))
		if err != nil {
			switch {
			case errors.Is(err, ErrAlreadyLiked):
				respondMsg(c, http.StatusBadRequest, "Post alreay liked")
			case errors.Is(err, ErrNotFound):
				respondMsg(c, http.StatusNotFound, "Post not found")
			default:
				respondServerError(c, err)
			}
			return
		}
		c.JSON(http.StatusOK, likes)
	})

	api.PUT("/posts/unlike/:id", requireAuth, func(c *gin.Context) {
		likes, err := posts.RemoveLike(c.Request.Context(), c.Param("id"), AuthUserID(c))
		if err != nil {
			switch {
			case errors.Is(err, ErrNotLiked):
				respondMsg(c, http.StatusBadRequest, "Post has not been liked yet")
			case errors.Is(err, ErrNotFound):
				respondMsg(c, http.StatusNotFound, "Post not found")
			default:
				respondServerError(c, err)
			}
			return
		}
		c.JSON(http.StatusOK, likes)
	})

	// ---- comments ----

	api.POST("/posts/comment/:id", requireAuth, func(c *gin.Context) {
		var req struct {
			Text string `json:"text"`
		}
		_ = c.ShouldBindJSON(&req)

		var v fieldErrors
		v.require(req.Text, "You didnt write anything")
		if !v.ok() {
			respondValidation(c, v.msgs)
			return
		}

		ctx := c.Request.Context()
		u, err := users.FindByID(ctx, AuthUserID(c))
		if err != nil {
			respondServerError(c, err)
			return
		}

		comment := Comment{
			ID:        NewDocID(),
			User:      u.ID,
			Text:      req.Text,
			Name:      u.Name,
			Avatar:    u.Avatar,
			CreatedAt: time.Now().UTC(),
		}
		comments, err := posts.AddComment(ctx, c.Param("id"), comment)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				respondMsg(c, http.StatusNotFound, "Post not found")
				return
			}
			respondServerError(c, err)
			return
		}
		c.JSON(http.StatusOK, comments)
	})

	api.DELETE("/posts/comment/:id/:comment_id", requireAuth, func(c *gin.Context) {
		ctx := c.Request.Context()
		post, err := posts.FindByID(ctx, c.Param("id"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				respondMsg(c, http.StatusNotFound, "Post not found")
				return
			}
			respondServerError(c, err)
			return
		}

		var comment *Comment
		for i := range post.Comments {
			if post.Comments[i].ID == c.Param("comment_id") {
				comment = &post.Comments[i]
				break
			}
		}
		if comment == nil {
			respondMsg(c, http.StatusNotFound, "Comment does not exist")
			return
		}
		if comment.User != AuthUserID(c) {
			respondMsg(c, http.StatusUnauthorized, "User not authorized")
			return
		}

		comments, err := posts.RemoveComment(ctx, post.ID, comment.ID)
		if err != nil {
			respondServerError(c, err)
			return
		}
		c.JSON(http.StatusOK, comments)
	})

	return r
}
