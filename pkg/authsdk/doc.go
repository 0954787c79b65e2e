/*
Package authsdk is a Go client for the schmeconomics authentication service.

An SDKClient talks to the public endpoints. Signing in returns a Session that
carries the access token and the refresh token cookie, refreshing the access
token shortly before it expires:

	client := authsdk.NewSDKClient("https://auth.example.com")

	session, err := client.SignIn(ctx, "alice", "correct horse")
	if err != nil {
		var apiErr *authsdk.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			// wrong name or password
		}
		return err
	}
	defer session.SignOut(ctx)

	me, err := session.Me(ctx)

Every refresh rotates the refresh token. Presenting an old refresh token
again revokes the whole session on the server, so a Session must not be
copied between processes.
*/
package authsdk
