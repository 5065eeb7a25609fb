package social

// PendingSignupKey is the session key holding the login awaiting confirmation.
const PendingSignupKey = "socialaccount_sociallogin"

// PendingSignupStore keeps at most one pending login per session.
type PendingSignupStore struct{}

// Save replaces any previous pending login.
func (PendingSignupStore) Save(sess Session, login *SocialLogin) error {
	raw, err := login.Serialize()
	if err != nil {
		return err
	}
	sess.Set(PendingSignupKey, raw)
	return nil
}

// Load returns nil when nothing is pending. It does not clear.
func (PendingSignupStore) Load(sess Session) (*SocialLogin, error) {
	raw, ok := sess.Get(PendingSignupKey)
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	return Deserialize(raw)
}

// Clear drops the pending login, if any.
func (PendingSignupStore) Clear(sess Session) {
	sess.Delete(PendingSignupKey)
}
