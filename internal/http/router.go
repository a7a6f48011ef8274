package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/example/orientation-hub/internal/application"
)

type RouterConfig struct {
	Auth       *AuthHandler
	Users      *UserHandler
	Tasks      *TaskHandler
	Forum      *ForumHandler
	Classes    *ClassHandler
	Middleware []func(http.Handler) http.Handler
}

// Ping answers the liveness check used by the web client.
func Ping(w http.ResponseWriter, r *http.Request) {
	newResponder(LoggerFromContext(r.Context())).writeOK(r.Context(), w, msgPong)
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	get := func(path string, h http.HandlerFunc) {
		r.HandleFunc(path, h).Methods(http.MethodGet)
	}

	get("/Ping", Ping)

	if cfg.Auth != nil {
		get("/CreateNewUser", cfg.Auth.Register)
		get("/CreateOldUser", cfg.Auth.Login)
		get("/Logout", cfg.Auth.Logout)
	}

	if cfg.Users != nil {
		u := cfg.Users
		get("/GetAllUserNames", u.ListUsernames)
		get("/CheckUsername", u.CheckUsername)

		get("/UpdateDisplayName", u.Update(application.ProfileDisplayName, "NewDisplayName", AckText("User's display name has been updated")))
		get("/UpdatePassword", u.Update(application.ProfilePassword, "NewPassword", AckText("User's password has been updated")))
		get("/UploadPFP", u.Update(application.ProfilePicture, "NewPFPFile", AckText("User's pfp has been uploaded")))
		get("/UpdateAboutme", u.Update(application.ProfileAboutMe, "NewAboutme", AckText("User's About me has been updated")))
		get("/UpdateContactInformation", u.Update(application.ProfileContactInfo, "NewContactInformation", AckText(msgResponse)))
		get("/UpdateInterests", u.Update(application.ProfileInterests, "Interest", AckValue))
		get("/UpdateCatalystNotes", u.Update(application.ProfileCatalystNotes, "Notes", AckValue))
		get("/AddToPhotoGallery", u.AddToPhotoGallery("New Image", AckUsername))

		get("/ReturnUsername", u.Show(UsernameView))
		get("/ReturnDisplayName", u.Show(FieldView(application.ProfileDisplayName)))
		get("/ReturnPFP", u.Show(FieldView(application.ProfilePicture)))
		get("/ReturnInterests", u.Show(FieldView(application.ProfileInterests)))
		get("/ReturnAboutMe", u.Show(FieldView(application.ProfileAboutMe)))
		get("/ReturnContactInfo", u.Show(FieldView(application.ProfileContactInfo)))
		get("/ReturnCatalystNotes", u.Show(FieldView(application.ProfileCatalystNotes)))
		get("/ReturnPhotoGallery", u.Show(GalleryView))
		get("/ReturnFood", u.Show(SelectionView(application.CategoryFood)))
		get("/ReturnDorm", u.Show(SelectionView(application.CategoryDorm)))
		get("/ReturnClasses", u.Show(SelectionView(application.CategoryClass)))
		get("/ReturnFacilities", u.Show(SelectionView(application.CategoryFacilities)))
		get("/ReturnFaculty", u.Show(SelectionView(application.CategoryFaculty)))
	}

	if cfg.Tasks != nil {
		t := cfg.Tasks
		get("/LikedFoods", t.Select(application.CategoryFood, "LikedFoods"))
		get("/SelectedDorm", t.Select(application.CategoryDorm, "SelectedDorm"))
		get("/SelectedClasses", t.Select(application.CategoryClass, "SelectedClasses"))
		get("/SelectedFaculty", t.Select(application.CategoryFaculty, "SelectedFaculty"))
		get("/LikedFacilities", t.Select(application.CategoryFacilities, "LikedFacilities"))
		get("/UpdateLeaderboard", t.UpdateLeaderboard)
		get("/ReturnLBInfo", t.Standings)
	}

	if cfg.Forum != nil {
		get("/PostMessage", cfg.Forum.Post)
		get("/ReturnMessages", cfg.Forum.List)
	}

	if cfg.Classes != nil {
		get("/AddClass", cfg.Classes.Add)
		get("/ReturnClassCatalog", cfg.Classes.List)
	}

	var handler http.Handler = r
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}
