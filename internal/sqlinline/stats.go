package sqlinline

const QStatsSummary = `--sql 33855828-7528-4d86-8beb-15709828489f
select
  coalesce((select sum(p.click_count) from products p where p.user_id = $1), 0) as total_clicks,
  (select count(*) from profile_views v where v.profile_user_id = $1) as total_views,
  (select count(*)
     from click_events c
     join products p on p.id = c.product_id
    where p.user_id = $1
      and c.created_at > now() - interval '24 hours') as clicks_last24,
  (select count(*)
     from profile_views v
    where v.profile_user_id = $1
      and v.created_at > now() - interval '24 hours') as views_last24,
  coalesce((select p.id::text
     from products p
    where p.user_id = $1
    order by p.click_count desc, p.created_at
    limit 1), '') as top_product_id;
`
