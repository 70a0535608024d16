package input

import (
	"github.com/keylesszk/prover-service/circuit"
	"github.com/keylesszk/prover-service/jwtparse"
)

// Field names that get a string-bodies signal alongside the whole field.
func needsStringBodies(fieldName string) bool {
	switch fieldName {
	case "nonce", "iss", "aud", "uid":
		return true
	}
	return false
}

// FieldCheckSignals derives the per-claim signals: one group per attested
// field, named by the field's role in the circuit rather than its JWT key.
func FieldCheckSignals(v *VerifiedInput) (*circuit.SignalsBuilder, error) {
	payload, err := v.PayloadDecoded()
	if err != nil {
		return nil, ServiceErrorf("%v", err)
	}

	b := circuit.NewSignalsBuilder()

	for _, name := range []string{"iss", "nonce", "iat"} {
		fieldSignals, err := signalsForField(payload, name, name)
		if err != nil {
			return nil, err
		}
		if _, err := b.Merge(fieldSignals); err != nil {
			return nil, ServiceErrorf("%v", err)
		}
	}

	// The uid field is addressed by role, its key comes from the request.
	uidSignals, err := signalsForField(payload, "uid", v.UidKey)
	if err != nil {
		return nil, err
	}
	uidSignals.Usize("uid_name_len", len(v.UidKey))
	if _, err := b.Merge(uidSignals); err != nil {
		return nil, ServiceErrorf("%v", err)
	}

	extraSignals, err := extraFieldSignals(payload, v)
	if err != nil {
		return nil, err
	}
	if _, err := b.Merge(extraSignals); err != nil {
		return nil, ServiceErrorf("%v", err)
	}

	evSignals, err := emailVerifiedSignals(payload, v)
	if err != nil {
		return nil, err
	}
	if _, err := b.Merge(evSignals); err != nil {
		return nil, ServiceErrorf("%v", err)
	}

	audSignals, err := audFieldSignals(payload, v)
	if err != nil {
		return nil, err
	}
	if _, err := b.Merge(audSignals); err != nil {
		return nil, ServiceErrorf("%v", err)
	}

	return b, nil
}

func wholeFieldSignals(b *circuit.SignalsBuilder, f *jwtparse.ParsedField, name string) {
	b.Str(name+"_field", f.WholeField)
	b.Usize(name+"_field_len", len(f.WholeField))
	b.Usize(name+"_index", f.Index)
	if needsStringBodies(name) {
		b.Bools(name+"_field_string_bodies", jwtparse.StringBodies(f.WholeField))
	}
}

func fieldComponentSignals(b *circuit.SignalsBuilder, f *jwtparse.ParsedField, name string) {
	b.Usize(name+"_colon_index", f.ColonIndex)
	b.Str(name+"_name", f.Key)
	b.Usize(name+"_value_index", f.ValueIndex)
	b.Usize(name+"_value_len", len(f.Value))
	b.Str(name+"_value", f.Value)
}

func signalsForField(payload, name, keyInJwt string) (*circuit.SignalsBuilder, error) {
	f, err := jwtparse.FindAndParseField(payload, keyInJwt)
	if err != nil {
		return nil, ClientErrorf("%v", err)
	}
	b := circuit.NewSignalsBuilder()
	wholeFieldSignals(b, f, name)
	fieldComponentSignals(b, f, name)
	return b, nil
}

// PrivateAudValue resolves which aud value goes into the identity
// commitment. idc_aud supports account recovery: the commitment keeps the
// original aud while the token carries the recovery service's aud.
func PrivateAudValue(v *VerifiedInput) (string, error) {
	switch {
	case v.SkipAudChecks && v.IdcAud != nil:
		return "", ClientErrorf("there is no aud-based recovery in aud-less mode")
	case v.SkipAudChecks:
		return "", nil
	case v.IdcAud != nil:
		return *v.IdcAud, nil
	default:
		return v.Jwt.Payload.Aud, nil
	}
}

// OverrideAudValue is the aud actually present in the token, exposed only
// when the commitment uses a different one.
func OverrideAudValue(v *VerifiedInput) string {
	if v.IdcAud != nil {
		return v.Jwt.Payload.Aud
	}
	return ""
}

func audFieldSignals(payload string, v *VerifiedInput) (*circuit.SignalsBuilder, error) {
	f, err := jwtparse.FindAndParseField(payload, "aud")
	if err != nil {
		return nil, ClientErrorf("%v", err)
	}

	privateAud, err := PrivateAudValue(v)
	if err != nil {
		return nil, err
	}
	overrideAud := OverrideAudValue(v)

	b := circuit.NewSignalsBuilder()
	wholeFieldSignals(b, f, "aud")
	b.Usize("aud_colon_index", f.ColonIndex)
	b.Str("aud_name", f.Key)
	b.Usize("aud_value_index", f.ValueIndex)
	b.Usize("private_aud_value_len", len(privateAud))
	b.Str("private_aud_value", privateAud)
	b.Usize("override_aud_value_len", len(overrideAud))
	b.Str("override_aud_value", overrideAud)
	b.Bool("use_aud_override", v.IdcAud != nil)
	return b, nil
}

func emailVerifiedSignals(payload string, v *VerifiedInput) (*circuit.SignalsBuilder, error) {
	f, err := ParsedEmailVerifiedFieldOrDefault(payload, v)
	if err != nil {
		return nil, err
	}
	b := circuit.NewSignalsBuilder()
	wholeFieldSignals(b, f, "ev")
	fieldComponentSignals(b, f, "ev")
	return b, nil
}

func extraFieldSignals(payload string, v *VerifiedInput) (*circuit.SignalsBuilder, error) {
	f, err := ParsedExtraFieldOrDefault(payload, v)
	if err != nil {
		return nil, err
	}
	b := circuit.NewSignalsBuilder()
	wholeFieldSignals(b, f, "extra")
	return b, nil
}

// ParsedEmailVerifiedFieldOrDefault parses email_verified when the uid is the
// email claim, otherwise substitutes a fixed placeholder the circuit accepts.
func ParsedEmailVerifiedFieldOrDefault(payload string, v *VerifiedInput) (*jwtparse.ParsedField, error) {
	if v.UidKey != "email" {
		return &jwtparse.ParsedField{
			Index:      1,
			Key:        "email_verified",
			Value:      "true",
			ColonIndex: 16,
			ValueIndex: 17,
			WholeField: `"email_verified":true,`,
		}, nil
	}
	f, err := jwtparse.FindAndParseField(payload, "email_verified")
	if err != nil {
		return nil, ClientErrorf("%v", err)
	}
	return f, nil
}

// ParsedExtraFieldOrDefault parses the requested extra claim, or substitutes
// the placeholder used when no extra field is exposed.
func ParsedExtraFieldOrDefault(payload string, v *VerifiedInput) (*jwtparse.ParsedField, error) {
	if v.ExtraField == nil {
		return &jwtparse.ParsedField{
			Index:      1,
			Key:        "",
			Value:      "",
			ColonIndex: 0,
			ValueIndex: 0,
			WholeField: " ",
		}, nil
	}
	f, err := jwtparse.FindAndParseField(payload, *v.ExtraField)
	if err != nil {
		return nil, ClientErrorf("%v", err)
	}
	return f, nil
}
