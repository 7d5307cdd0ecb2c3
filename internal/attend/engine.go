package attend

import "time"

// ComputeDefaults derives the prefill rows for the attendance form: one
// record per resolvable lesson, carrying the status and id of the latest
// attendance record of any type when history exists. Bundles without a full
// identifier set are skipped silently. Pure: same input, same output.
func ComputeDefaults(studentID int64, date time.Time, lessons []LessonBundle) ([]Record, error) {
	defaults := make([]Record, 0, len(lessons))
	for _, b := range lessons {
		ids := ResolveIdentifiers(b)
		if ids == nil {
			continue
		}
		spec := buildSpec{}
		if last := latest(b.ShuttleAttendance); last != nil {
			spec.status = last.Status
			spec.existingID = &last.ID
		}
		rec, err := buildRecord(b, ids, studentID, date, spec)
		if err != nil {
			return nil, err
		}
		defaults = append(defaults, rec)
	}
	return defaults, nil
}

// ComputeSubmission reconciles the guardian's form choices (index-paired with
// lessons, empty string meaning no choice) against each lesson's history and
// builds the upsert batch.
//
// The effective status per lesson is the form choice, falling back to the
// latest recorded status. HasUnselected flags a lesson left with neither; the
// payload is still fully built so callers can inspect it. HasChanged is true
// only when at least one form choice differs from the latest recorded status;
// an unchanged batch is a no-op the caller should not send.
//
// BOTH shuttle usage splits into a BOARDING and a DROP record, each reusing
// the latest prior record of its own type when one exists. A missing leg gets
// a fresh create-mode record even when the other leg updates.
func ComputeSubmission(studentID int64, date time.Time, lessons []LessonBundle, form []Status) (Submission, error) {
	var sub Submission
	sub.Payload = make([]Record, 0, len(lessons))

	for i, b := range lessons {
		ids := ResolveIdentifiers(b)
		if ids == nil {
			sub.Skipped++
			continue
		}

		var chosen Status
		if i < len(form) {
			chosen = form[i]
		}
		last := latest(b.ShuttleAttendance)

		effective := chosen
		if effective == "" && last != nil {
			effective = last.Status
		}
		if effective == "" {
			sub.HasUnselected = true
		}
		if chosen != "" && (last == nil || chosen != last.Status) {
			sub.HasChanged = true
		}

		usage := b.LessonStudentDetail.ShuttleUsage
		if usage == "" {
			usage = UsageNone
		}

		if usage == UsageBoth {
			boarding, drop := latestPair(b.ShuttleAttendance)
			br, err := buildRecord(b, ids, studentID, date, buildSpec{
				status:     effective,
				existingID: recordID(boarding),
				override:   UsageBoarding,
			})
			if err != nil {
				return Submission{}, err
			}
			dr, err := buildRecord(b, ids, studentID, date, buildSpec{
				status:     effective,
				existingID: recordID(drop),
				override:   UsageDrop,
			})
			if err != nil {
				return Submission{}, err
			}
			sub.Payload = append(sub.Payload, br, dr)
			continue
		}

		rec, err := buildRecord(b, ids, studentID, date, buildSpec{
			status:     effective,
			existingID: recordID(last),
		})
		if err != nil {
			return Submission{}, err
		}
		sub.Payload = append(sub.Payload, rec)
	}

	return sub, nil
}

func recordID(r *ShuttleRecord) *int64 {
	if r == nil {
		return nil
	}
	return &r.ID
}
