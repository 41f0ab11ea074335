package employeronboarding

import (
	"net/http"

	"github.com/dalemusser/crewpay/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// caller returns the signed-in user and their organization. ok is false (and
// a response has been written) when the session carries no organization.
func caller(w http.ResponseWriter, r *http.Request) (userID, orgID primitive.ObjectID, ok bool) {
	_, _, userID, signedIn := authz.UserCtx(r)
	if !signedIn || userID.IsZero() {
		badRequest(w, "no signed-in user")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	orgID = authz.UserOrgID(r)
	if orgID.IsZero() {
		badRequest(w, "no organization is associated with this account")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return userID, orgID, true
}
