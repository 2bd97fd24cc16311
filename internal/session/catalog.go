package session

import (
	"context"
	"strings"

	"garage-chat/internal/appstate"
	"garage-chat/internal/docstore"
	"garage-chat/internal/models"

	"go.uber.org/zap"
)

// ServicesCollection danh mục dịch vụ garage
const ServicesCollection = "services"

// WatchCatalog theo dõi danh mục dịch vụ và danh sách nhân viên, cập nhật app state
func WatchCatalog(ctx context.Context, docs docstore.Store, app *appstate.Store, log *zap.Logger) (docstore.Unsubscribe, error) {
	log = log.Named("catalog")
	onError := func(err error) {
		log.Error("Catalog listener stopped", zap.Error(err))
	}

	stopServices, err := docs.Listen(ctx, docstore.Collection(ServicesCollection), func(snap []docstore.Document) {
		services := make([]models.Service, 0, len(snap))
		for _, d := range snap {
			services = append(services, models.ParseService(d.ID, d.Data))
		}
		app.Dispatch(appstate.ServicesLoaded{Services: services})
	}, onError)
	if err != nil {
		return nil, err
	}

	stopStaff, err := docs.Listen(ctx, docstore.Collection(models.UsersCollection), func(snap []docstore.Document) {
		staff := make([]models.User, 0)
		for _, d := range snap {
			email, _ := d.Data["email"].(string)
			if !strings.HasPrefix(email, models.StaffEmailPrefix) {
				continue
			}
			u, err := models.ParseUser(d.ID, d.Data)
			if err != nil {
				log.Warn("Skip malformed user", zap.String("doc_id", d.ID), zap.Error(err))
				continue
			}
			staff = append(staff, u)
		}
		app.Dispatch(appstate.StaffLoaded{Staff: staff})
	}, onError)
	if err != nil {
		stopServices()
		return nil, err
	}

	return func() {
		stopServices()
		stopStaff()
	}, nil
}
