package api

import (
	"net/http"
	"os"
	"strings"

	"caseflow/internal/model"
	"caseflow/internal/ws"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking
		return true
	},
}

func (d Dependencies) wsHandler(w http.ResponseWriter, r *http.Request) {
	d.Log.Info("WebSocket connection attempt",
		zap.String("remote", r.RemoteAddr),
		zap.String("path", r.URL.Path),
		zap.String("upgrade", r.Header.Get("Upgrade")),
	)

	// Check Hub before upgrading
	if d.Hub == nil {
		d.Log.Error("WebSocket hub not initialized")
		http.Error(w, "WebSocket hub not initialized", http.StatusInternalServerError)
		return
	}

	actor, ok := extractActorFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	d.Log.Info("WebSocket actor", zap.String("actor_id", actor.ID))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.Log.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	wsConn := ws.NewConn(conn, d.Hub, actor)
	d.Hub.Register(wsConn)

	go wsConn.WritePump()
	go wsConn.ReadPump()
}

// extractActorFromRequest resolves the actor from a JWT (query parameter or
// Authorization header) or, in development, the X-Actor-ID headers.
func extractActorFromRequest(r *http.Request) (model.Actor, bool) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		tokenString = r.Header.Get("Authorization")
		if strings.HasPrefix(tokenString, "Bearer ") {
			tokenString = strings.TrimPrefix(tokenString, "Bearer ")
		}
	}

	if tokenString != "" {
		jwtSecret := os.Getenv("JWT_SECRET")
		if jwtSecret == "" {
			jwtSecret = "default-secret-key-change-in-production"
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			return []byte(jwtSecret), nil
		})
		if err == nil && token.Valid {
			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				actor := model.Actor{}
				actor.ID, _ = claims["sub"].(string)
				actor.CompanyID, _ = claims["company_id"].(string)
				actor.RoleID, _ = claims["role_id"].(string)
				actor.Super, _ = claims["super"].(bool)
				if actor.ID != "" {
					return actor, true
				}
			}
		}
	}

	// Fallback to identity headers (for development)
	if actorID := r.Header.Get("X-Actor-ID"); actorID != "" {
		return model.Actor{
			ID:        actorID,
			CompanyID: r.Header.Get("X-Company-ID"),
			RoleID:    r.Header.Get("X-Role-ID"),
		}, true
	}

	return model.Actor{}, false
}
