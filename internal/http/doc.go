// Package http exposes the orientation services over plain-text HTTP GET
// endpoints. Inputs arrive as query parameters and every body is text/plain.
//
// Account endpoints:
//   - /CreateNewUser (DisplayName, Username, Password, ContactInformation):
//     "True" when the account was created, "False" when the username is taken.
//   - /CreateOldUser (Username, Password): "True" on a correct pair, with a
//     session token in the `X-Session-Token` header and `session_token` cookie.
//   - /Logout: revokes the presented token and answers
//     "The user has been logged out".
//   - /GetAllUserNames, /CheckUsername (Username).
//
// Callers are identified by `Authorization: Bearer <token>` or the session
// cookie. When legacy username tokens are enabled the Username parameter is
// accepted instead. Update*, task selection endpoints and /AddToPhotoGallery
// act on the caller; Return* endpoints read the user named by Username.
//
// Task endpoints /LikedFoods, /SelectedDorm, /SelectedClasses,
// /SelectedFaculty and /LikedFacilities record a selection from the parameter
// of the same name and leave a completion marker. /UpdateLeaderboard folds the
// markers into points and /ReturnLBInfo lists "user:points" pairs ascending.
//
// /PostMessage (Message, DisplayName) and /ReturnMessages serve the forum;
// /AddClass and /ReturnClassCatalog the class catalog.
//
// Unknown users answer 404 "User not found"; store failures answer 500.
package http
