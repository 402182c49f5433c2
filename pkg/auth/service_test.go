package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/smartystreets/goconvey/convey"
)

func TestIssueToken(t *testing.T) {
	Convey("Given a validator", t, func() {
		validator := NewValidator("test-secret")

		token, err := validator.IssueToken("ops", time.Hour)

		Convey("Then a signed token is returned", func() {
			So(err, ShouldBeNil)
			So(token, ShouldNotBeEmpty)
		})
	})
}

func TestValidateBearer(t *testing.T) {
	Convey("Given a validator with a known secret", t, func() {
		validator := NewValidator("test-secret")

		Convey("A token it issued validates with the Bearer prefix", func() {
			token, err := validator.IssueToken("ops", time.Hour)
			So(err, ShouldBeNil)

			So(validator.ValidateBearer("Bearer "+token), ShouldBeNil)
		})

		Convey("A bare token without the prefix validates too", func() {
			token, _ := validator.IssueToken("ops", time.Hour)

			So(validator.ValidateBearer(token), ShouldBeNil)
		})

		Convey("An empty header is rejected", func() {
			err := validator.ValidateBearer("")

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "missing authorization header")
		})

		Convey("A token signed with another secret is rejected", func() {
			other := NewValidator("other-secret")
			token, _ := other.IssueToken("ops", time.Hour)

			err := validator.ValidateBearer("Bearer " + token)

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "invalid token")
		})

		Convey("An expired token is rejected", func() {
			token, _ := validator.IssueToken("ops", -time.Hour)

			err := validator.ValidateBearer("Bearer " + token)

			So(err, ShouldNotBeNil)
		})

		Convey("A token with the wrong signing method is rejected", func() {
			unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "ops"})
			token, _ := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)

			err := validator.ValidateBearer("Bearer " + token)

			So(err, ShouldNotBeNil)
		})
	})
}
