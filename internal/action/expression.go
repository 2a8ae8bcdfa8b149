package action

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/hearth/internal/domain"
)

func (e *Engine) executeWriteSign(ctx context.Context, agent domain.Agent, a domain.WriteSignAction, tick int) (domain.ActionResult, error) {
	sign := domain.WorldObject{
		ID: domain.NewObjectID(), Kind: domain.ObjectSign,
		Position: agent.Position, CreatedBy: agent.Name, CreatedTick: tick,
		Text: a.Text,
	}
	if err := e.world.PlaceObject(ctx, sign); err != nil {
		return domain.ActionResult{}, err
	}

	event := domain.SignWrittenEvent{
		BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
		ObjectID:  sign.ID, Position: agent.Position, Text: a.Text, Author: agent.Name,
	}
	return domain.OkResult("Wrote a sign.", []domain.DomainEvent{event}, nil), nil
}

func (e *Engine) executeReadSign(ctx context.Context, agent domain.Agent, a domain.ReadSignAction, tick int) (domain.ActionResult, error) {
	targetPos, err := resolveDirectionToPosition(agent.Position, a.Direction)
	if err != nil {
		return domain.FailResult("Look north, south, east, west, or down at your feet."), nil
	}

	objects, err := e.world.GetObjectsAt(ctx, targetPos)
	if err != nil {
		return domain.ActionResult{}, err
	}
	var signs []domain.WorldObject
	for _, o := range objects {
		if o.Kind == domain.ObjectSign {
			signs = append(signs, o)
		}
	}
	if len(signs) == 0 {
		return domain.FailResult(fmt.Sprintf("There's no sign %s.", directionPhrase(a.Direction))), nil
	}

	sign := signs[0]
	return domain.OkResult(
		fmt.Sprintf("The sign reads: %q", sign.Text),
		nil,
		map[string]any{"text": sign.Text, "author": string(sign.CreatedBy)},
	), nil
}

func (e *Engine) executeNamePlace(ctx context.Context, agent domain.Agent, a domain.NamePlaceAction, tick int) (domain.ActionResult, error) {
	if err := e.world.NamePlace(ctx, a.Name, agent.Position); err != nil {
		return domain.ActionResult{}, err
	}

	event := domain.PlaceNamedEvent{
		BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
		Position:  agent.Position, Name: a.Name, NamedBy: agent.Name,
	}
	return domain.OkResult(fmt.Sprintf("Named this place %q.", a.Name), []domain.DomainEvent{event}, nil), nil
}
